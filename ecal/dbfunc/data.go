/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"context"
	"fmt"

	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/ecal/parser"
)

/*
FetchDataFunc fetches an opaque data value.
*/
type FetchDataFunc struct {
	LM *trans.LogManager
}

/*
Run executes the ECAL function.
*/
func (f *FetchDataFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires 1 parameter: data key")
	}

	val, err := f.LM.GetData(context.Background(), fmt.Sprint(args[0]))

	if err != nil || val == nil {
		return nil, err
	}

	return string(val), nil
}

/*
DocString returns a descriptive string.
*/
func (f *FetchDataFunc) DocString() (string, error) {
	return "Fetches an opaque data value.", nil
}

/*
StoreDataFunc stores or removes an opaque data value in its own transaction.
*/
type StoreDataFunc struct {
	LM *trans.LogManager
}

/*
Run executes the ECAL function.
*/
func (f *StoreDataFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 2 {
		return nil, fmt.Errorf("Function requires 2 parameters: data key and value (NULL removes the value)")
	}

	ctx := context.Background()
	key := fmt.Sprint(args[0])

	t, err := f.LM.Start(ctx)

	if err == nil {
		if args[1] == nil {
			err = t.DeleteData(ctx, key)
		} else {
			err = t.PutData(ctx, key, []byte(fmt.Sprint(args[1])))
		}

		if err == nil {
			err = f.LM.Commit(ctx, t)
		} else {
			f.LM.RollbackTrans(ctx, t)
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *StoreDataFunc) DocString() (string, error) {
	return "Stores an opaque data value. A NULL value removes the value.", nil
}
