/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"github.com/klauspost/compress/zstd"
	"github.com/krotik/common/errorutil"
	"lukechampine.com/blake3"
)

/*
Format markers of encoded entries
*/
const (
	formatPlain = 'j'
	formatZstd  = 'z'
)

/*
checksumSize is the size of the checksum which precedes every payload.
*/
const checksumSize = 32

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

/*
zstdCodec returns the shared zstd encoder and decoder. Both are safe for
concurrent use of EncodeAll and DecodeAll.
*/
func zstdCodec() (*zstd.Encoder, *zstd.Decoder) {
	zstdOnce.Do(func() {
		var err error

		zstdEncoder, err = zstd.NewWriter(nil)
		errorutil.AssertOk(err)

		zstdDecoder, err = zstd.NewReader(nil)
		errorutil.AssertOk(err)
	})

	return zstdEncoder, zstdDecoder
}

/*
Codec encodes and decodes change log entries. The encoded form is:

	<format byte> <32 byte blake3 checksum of payload> <payload>

The payload is the JSON form of the entry which is optionally zstd compressed.
*/
type Codec struct {
	Compress bool // Flag if payloads should be compressed
}

/*
Encode encodes an entry.
*/
func (c *Codec) Encode(e *Entry) ([]byte, error) {
	buf := storage.BufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		storage.BufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(e); err != nil {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: err.Error()}
	}

	format := byte(formatPlain)
	payload := buf.Bytes()

	if c.Compress {
		enc, _ := zstdCodec()
		format = formatZstd
		payload = enc.EncodeAll(payload, nil)
	}

	sum := blake3.Sum256(payload)

	ret := make([]byte, 0, 1+checksumSize+len(payload))
	ret = append(ret, format)
	ret = append(ret, sum[:]...)
	ret = append(ret, payload...)

	return ret, nil
}

/*
Decode decodes an entry. Both compressed and uncompressed entries can be
decoded regardless of the Compress flag.
*/
func (c *Codec) Decode(b []byte) (*Entry, error) {
	var e Entry

	corrupted := func(format string, args ...interface{}) error {
		return util.NewGraphError(util.ErrCorruptedLog, format, args...)
	}

	if len(b) < 1+checksumSize {
		return nil, corrupted("Entry is too short (%v bytes)", len(b))
	}

	format, sum, payload := b[0], b[1:1+checksumSize], b[1+checksumSize:]

	if actual := blake3.Sum256(payload); !bytes.Equal(actual[:], sum) {
		return nil, corrupted("Checksum mismatch")
	}

	switch format {
	case formatPlain:
	case formatZstd:
		_, dec := zstdCodec()

		plain, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, corrupted("Could not decompress entry: %v", err)
		}

		payload = plain

	default:
		return nil, corrupted("Unknown format %q", format)
	}

	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, corrupted("Could not decode entry: %v", err)
	}

	if err := e.Validate(); err != nil {
		return nil, corrupted("%v", err.(*util.GraphError).Detail)
	}

	return &e, nil
}

/*
String returns a string representation of this codec.
*/
func (c *Codec) String() string {
	return fmt.Sprintf("Codec (compress: %v)", c.Compress)
}
