/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package util

import (
	"strings"

	"golang.org/x/text/cases"
)

/*
FoldKey returns the canonical (case folded) form of a key. Two keys are
considered equal if their folded forms are equal.
*/
func FoldKey(key string) string {

	// A Caser keeps state so a new one is needed for every call

	return cases.Fold().String(strings.TrimSpace(key))
}

/*
EqualKeys checks if two keys are equal.
*/
func EqualKeys(k1, k2 string) bool {
	return FoldKey(k1) == FoldKey(k2)
}
