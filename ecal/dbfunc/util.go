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
Package dbfunc contains GraphMap specific functions for the event condition action language (ECAL).
*/
package dbfunc

import (
	"encoding/json"

	"github.com/krotik/ecal/scope"
)

/*
toECALObject converts a graph object into an ECAL object by way of its JSON
representation.
*/
func toECALObject(obj interface{}) (interface{}, error) {
	var res interface{}

	b, err := json.Marshal(obj)

	if err == nil {
		if err = json.Unmarshal(b, &res); err == nil {
			res = scope.ConvertJSONToECALObject(res)
		}
	}

	return res, err
}

/*
JSONToECALObject converts the JSON representation of a graph object into an
ECAL object. Empty input results in nil.
*/
func JSONToECALObject(b []byte) interface{} {
	var res interface{}

	if len(b) == 0 || json.Unmarshal(b, &res) != nil {
		return nil
	}

	return scope.ConvertJSONToECALObject(res)
}
