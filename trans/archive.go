/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package trans

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"devt.de/krotik/graphmap/graph"
)

/*
Names of the files inside an export archive
*/
const (
	ArchiveGraphFile = "graph.json"
	ArchiveDataFile  = "data.json"
)

/*
ExportArchive writes all nodes, edges and data values which are managed by
a LogManager into a zip archive.
*/
func ExportArchive(ctx context.Context, lm *LogManager, out io.Writer) error {
	var w io.Writer

	zipWriter := zip.NewWriter(out)

	w, err := zipWriter.Create(ArchiveGraphFile)

	if err == nil {
		err = graph.ExportGraph(w, lm.gm)
	}

	if err == nil && lm.store != nil {
		var keys []string

		values := make(map[string]string)

		if keys, err = lm.DataKeys(ctx); err == nil {
			for _, k := range keys {
				var v []byte

				if v, err = lm.GetData(ctx, k); err != nil {
					break
				}

				values[k] = string(v)
			}
		}

		if err == nil {
			if w, err = zipWriter.Create(ArchiveDataFile); err == nil {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(values)
			}
		}
	}

	if cerr := zipWriter.Close(); err == nil {
		err = cerr
	}

	return err
}

/*
ImportArchive imports an archive which was written by ExportArchive. All
imported objects are part of a single transaction. Nothing is imported if
the archive cannot be read completely.
*/
func ImportArchive(ctx context.Context, lm *LogManager, in io.ReaderAt, size int64) error {
	var t *Trans

	zr, err := zip.NewReader(in, size)

	if err == nil {
		t, err = lm.Start(ctx)
	}

	if err != nil {
		return err
	}

	for _, file := range zr.File {
		var r io.ReadCloser

		if r, err = file.Open(); err != nil {
			break
		}

		switch file.Name {
		case ArchiveGraphFile:
			err = t.Update(ctx, func(s *graph.Section) error {
				return graph.ImportGraph(r, s)
			})

		case ArchiveDataFile:
			values := make(map[string]string)

			if err = json.NewDecoder(r).Decode(&values); err == nil {
				for k, v := range values {
					if err = t.PutData(ctx, k, []byte(v)); err != nil {
						break
					}
				}
			}

		default:
			err = fmt.Errorf("Unknown file in archive: %v", file.Name)
		}

		r.Close()

		if err != nil {
			break
		}
	}

	if err == nil {
		return lm.Commit(ctx, t)
	}

	if rerr := lm.RollbackTrans(ctx, t); rerr != nil {
		logger.Error(fmt.Sprintf("Could not roll back import %v: %v", t, rerr))
	}

	return err
}
