/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package config contains the configuration of a GraphMap server.
*/
package config

import (
	"fmt"
	"path"
	"strconv"

	"github.com/krotik/common/errorutil"
	"github.com/krotik/common/fileutil"
)

// Global variables
// ================

/*
ProductVersion is the current version of GraphMap
*/
const ProductVersion = "1.0.0"

/*
DefaultConfigFile is the default config file which will be used to configure GraphMap
*/
var DefaultConfigFile = "graphmap.config.json"

/*
Known configuration options for GraphMap
*/
const (
	StorageBackend        = "StorageBackend"
	LocationDatastore     = "LocationDatastore"
	LocationWebFolder     = "LocationWebFolder"
	LogScope              = "LogScope"
	CompressLog           = "CompressLog"
	EdgePolicy            = "EdgePolicy"
	CheckpointOnShutdown  = "CheckpointOnShutdown"
	LockFile              = "LockFile"
	HTTPHost              = "HTTPHost"
	HTTPPort              = "HTTPPort"
	LogLevel              = "LogLevel"
	LogFile               = "LogFile"
	EnableWebFolder       = "EnableWebFolder"
	EnableWebTerminal     = "EnableWebTerminal"
	EnableMetrics         = "EnableMetrics"
	EnableChangeFeed      = "EnableChangeFeed"
	ChangeFeedMaxClients  = "ChangeFeedMaxClients"
	EnableECALScripts     = "EnableECALScripts"
	ECALScriptFolder      = "ECALScriptFolder"
	ECALEntryScript       = "ECALEntryScript"
	ECALLogLevel          = "ECALLogLevel"
	ECALLogFile           = "ECALLogFile"
	ECALWorkerCount       = "ECALWorkerCount"
	EnableECALDebugServer = "EnableECALDebugServer"
	ECALDebugServerHost   = "ECALDebugServerHost"
	ECALDebugServerPort   = "ECALDebugServerPort"
)

/*
Known storage backends
*/
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

/*
DefaultConfig is the defaut configuration
*/
var DefaultConfig = map[string]interface{}{
	StorageBackend:        BackendBolt,
	LocationDatastore:     "db",
	LocationWebFolder:     "web",
	LogScope:              "main",
	CompressLog:           false,
	EdgePolicy:            "detach",
	CheckpointOnShutdown:  true,
	LockFile:              "graphmap.lck",
	HTTPHost:              "localhost",
	HTTPPort:              "9090",
	LogLevel:              "info",
	LogFile:               "",
	EnableWebFolder:       true,
	EnableWebTerminal:     true,
	EnableMetrics:         true,
	EnableChangeFeed:      true,
	ChangeFeedMaxClients:  100,
	EnableECALScripts:     false,
	ECALScriptFolder:      "scripts",
	ECALEntryScript:       "main.ecal",
	ECALLogLevel:          "info",
	ECALLogFile:           "",
	ECALWorkerCount:       10,
	EnableECALDebugServer: false,
	ECALDebugServerHost:   "127.0.0.1",
	ECALDebugServerPort:   "33274",
}

/*
Config is the actual config which is used
*/
var Config map[string]interface{}

/*
LoadConfigFile loads a given config file. If the config file does not exist it is
created with the default options.
*/
func LoadConfigFile(configfile string) error {
	var err error

	Config, err = fileutil.LoadConfig(configfile, DefaultConfig)

	return err
}

/*
LoadDefaultConfig loads the default configuration.
*/
func LoadDefaultConfig() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int64 {
	ret, err := strconv.ParseInt(fmt.Sprint(Config[key]), 10, 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
DatastorePath returns a path relative to the datastore directory.
*/
func DatastorePath(parts ...string) string {
	return path.Join(Str(LocationDatastore), path.Join(parts...))
}

/*
WebPath returns a path relative to the web directory.
*/
func WebPath(parts ...string) string {
	return path.Join(Str(LocationWebFolder), path.Join(parts...))
}
