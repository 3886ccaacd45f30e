/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"encoding/json"
	"strings"

	"devt.de/krotik/graphmap/graph/util"
)

/*
RemovalMarker is the prefix which marks a tag or an index name for removal.
*/
const RemovalMarker = "-"

/*
Tag is a single tag of a node or edge. A tag is either a plain name or a
name=value pair.
*/
type Tag struct {
	Key      string
	Value    string
	HasValue bool
}

/*
ParseTag parses a tag string of the form name or name=value.
*/
func ParseTag(s string) Tag {
	if i := strings.Index(s, "="); i >= 0 {
		return Tag{strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true}
	}
	return Tag{Key: strings.TrimSpace(s)}
}

/*
String returns a string representation of this tag.
*/
func (t Tag) String() string {
	if t.HasValue {
		return t.Key + "=" + t.Value
	}
	return t.Key
}

/*
Tags is an ordered tag multimap. Keys are compared case-insensitively, setting
an existing key replaces its value in place.
*/
type Tags []Tag

/*
NewTags creates a tag list from a number of tag strings.
*/
func NewTags(tags ...string) Tags {
	var ret Tags

	for _, t := range tags {
		ret = ret.Set(ParseTag(t))
	}

	return ret
}

func (t Tags) index(key string) int {
	fkey := util.FoldKey(key)

	for i, tag := range t {
		if util.FoldKey(tag.Key) == fkey {
			return i
		}
	}

	return -1
}

/*
Get returns a tag by its key.
*/
func (t Tags) Get(key string) (Tag, bool) {
	if i := t.index(key); i >= 0 {
		return t[i], true
	}
	return Tag{}, false
}

/*
Has checks if a tag with a given key exists.
*/
func (t Tags) Has(key string) bool {
	return t.index(key) >= 0
}

/*
Set adds or replaces a tag. The returned list must be used by the caller.
*/
func (t Tags) Set(tag Tag) Tags {
	if tag.Key == "" {
		return t
	}

	if i := t.index(tag.Key); i >= 0 {
		t[i].Value = tag.Value
		t[i].HasValue = tag.HasValue
		return t
	}

	return append(t, tag)
}

/*
Remove removes a tag by its key. The returned list must be used by the caller.
*/
func (t Tags) Remove(key string) Tags {
	if i := t.index(key); i >= 0 {
		return append(t[:i:i], t[i+1:]...)
	}
	return t
}

/*
Keys returns all tag keys in order.
*/
func (t Tags) Keys() []string {
	ret := make([]string, 0, len(t))
	for _, tag := range t {
		ret = append(ret, tag.Key)
	}
	return ret
}

/*
Clone returns a copy of this tag list.
*/
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	return append(make(Tags, 0, len(t)), t...)
}

/*
Equal checks if two tag lists are equal (same tags in the same order).
*/
func (t Tags) Equal(other Tags) bool {
	if len(t) != len(other) {
		return false
	}

	for i, tag := range t {
		if !util.EqualKeys(tag.Key, other[i].Key) || tag.Value != other[i].Value ||
			tag.HasValue != other[i].HasValue {
			return false
		}
	}

	return true
}

/*
String returns a string representation of this tag list.
*/
func (t Tags) String() string {
	strs := make([]string, 0, len(t))
	for _, tag := range t {
		strs = append(strs, tag.String())
	}
	return strings.Join(strs, ", ")
}

/*
MarshalJSON encodes a tag list as a list of tag strings.
*/
func (t Tags) MarshalJSON() ([]byte, error) {
	strs := make([]string, 0, len(t))
	for _, tag := range t {
		strs = append(strs, tag.String())
	}
	return json.Marshal(strs)
}

/*
UnmarshalJSON decodes a list of tag strings.
*/
func (t *Tags) UnmarshalJSON(b []byte) error {
	var strs []string

	if err := json.Unmarshal(b, &strs); err != nil {
		return err
	}

	*t = NewTags(strs...)

	return nil
}

// Tag patches
// ===========

/*
TagOp is a single tag patch operation.
*/
type TagOp struct {
	Key      string
	Value    string
	HasValue bool
	Remove   bool
}

/*
ParseTagOp parses a single patch operation. A leading removal marker
denotes a removal.
*/
func ParseTagOp(s string) TagOp {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, RemovalMarker) {
		return TagOp{Key: strings.TrimSpace(s[len(RemovalMarker):]), Remove: true}
	}

	t := ParseTag(s)

	return TagOp{Key: t.Key, Value: t.Value, HasValue: t.HasValue}
}

/*
ParseTagOps parses a comma separated list of patch operations.
*/
func ParseTagOps(s string) []TagOp {
	var ret []TagOp

	for _, p := range strings.Split(s, ",") {
		if op := ParseTagOp(p); op.Key != "" {
			ret = append(ret, op)
		}
	}

	return ret
}

/*
TagOpsFromTags converts a tag list into patch operations which set all tags.
*/
func TagOpsFromTags(tags Tags) []TagOp {
	ret := make([]TagOp, 0, len(tags))

	for _, tag := range tags {
		if strings.HasPrefix(tag.Key, RemovalMarker) {
			ret = append(ret, TagOp{Key: tag.Key[len(RemovalMarker):], Remove: true})
			continue
		}
		ret = append(ret, TagOp{Key: tag.Key, Value: tag.Value, HasValue: tag.HasValue})
	}

	return ret
}

/*
Apply applies patch operations left to right and returns a new tag list. The
receiver is not modified.
*/
func (t Tags) Apply(ops []TagOp) Tags {
	ret := t.Clone()

	for _, op := range ops {
		if op.Remove {
			ret = ret.Remove(op.Key)
		} else {
			ret = ret.Set(Tag{op.Key, op.Value, op.HasValue})
		}
	}

	return ret
}
