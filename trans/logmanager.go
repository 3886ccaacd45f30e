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
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"github.com/google/uuid"
	"github.com/krotik/common/errorutil"
	"github.com/krotik/common/flowutil"
	"github.com/krotik/common/logutil"
)

var logger = logutil.GetLogger("graphmap.trans")

/*
DefaultScope is the default scope of a log.
*/
const DefaultScope = "main"

/*
EventCommitted is the event which is posted for every committed entry. The
event source is the entry.
*/
const EventCommitted = "changelog.committed"

/*
LogKey returns the store key of a log entry. Keys of a scope sort in LSN
order.
*/
func LogKey(scope string, lsn uint64) string {
	return fmt.Sprintf("%v%020d", logPrefix(scope), lsn)
}

func logPrefix(scope string) string {
	return fmt.Sprintf("log/%v/", scope)
}

func checkpointKey(scope string) string {
	return fmt.Sprintf("checkpoint/%v", scope)
}

/*
DataKey returns the store key of an opaque data value.
*/
func DataKey(key string) string {
	return "data/" + key
}

/*
LogManager is a transaction provider which writes a change log into a
key/value store.
*/
type LogManager struct {
	gm     *graph.GraphMap        // GraphMap which is changed
	store  storage.Store          // Store for log entries and data (may be nil)
	scope  string                 // Scope of the log
	codec  *changelog.Codec       // Codec for log entries
	dm     *changelog.DataManager // Applier for log entries
	lsn    uint64                 // Last assigned log sequence number
	pump   *flowutil.EventPump    // Event pump for committed entries
	commit *sync.Mutex            // Lock which serializes commits
	stats  *TransStats            // Transaction statistics

	open     map[string]*Trans // Transactions with uncommitted graph changes
	openLock *sync.Mutex       // Lock for open transactions
}

/*
TransStats holds transaction statistics.
*/
type TransStats struct {
	Committed  uint64 // Number of committed transactions
	RolledBack uint64 // Number of rolled back transactions
	Recovered  uint64 // Number of replayed entries
}

/*
NewLogManager creates a new LogManager. Without a store transactions are not
durable and recovery is not available.
*/
func NewLogManager(gm *graph.GraphMap, store storage.Store, scope string, compress bool) *LogManager {
	if scope == "" {
		scope = DefaultScope
	}

	var dmStore storage.Store
	if store != nil {
		dmStore = &dataStore{store}
	}

	return &LogManager{gm, store, scope, &changelog.Codec{Compress: compress},
		changelog.NewDataManager(dmStore), gm.LastLSN(), flowutil.NewEventPump(),
		&sync.Mutex{}, &TransStats{}, make(map[string]*Trans), &sync.Mutex{}}
}

/*
GraphMap returns the GraphMap of this LogManager.
*/
func (lm *LogManager) GraphMap() *graph.GraphMap {
	return lm.gm
}

/*
Scope returns the scope of the log.
*/
func (lm *LogManager) Scope() string {
	return lm.scope
}

/*
LastLSN returns the last assigned log sequence number.
*/
func (lm *LogManager) LastLSN() uint64 {
	return atomic.LoadUint64(&lm.lsn)
}

/*
Stats returns a copy of the current transaction statistics.
*/
func (lm *LogManager) Stats() TransStats {
	return TransStats{
		Committed:  atomic.LoadUint64(&lm.stats.Committed),
		RolledBack: atomic.LoadUint64(&lm.stats.RolledBack),
		Recovered:  atomic.LoadUint64(&lm.stats.Recovered),
	}
}

/*
OpenTrans returns the number of transactions whose graph changes are applied
but not yet committed or rolled back.
*/
func (lm *LogManager) OpenTrans() int {
	lm.openLock.Lock()
	defer lm.openLock.Unlock()

	return len(lm.open)
}

/*
setOpen registers or unregisters a transaction which changes the GraphMap.
A transaction must be registered before it enters the critical section.
*/
func (lm *LogManager) setOpen(t *Trans, open bool) {
	lm.openLock.Lock()
	defer lm.openLock.Unlock()

	if open {
		lm.open[t.id] = t
	} else {
		delete(lm.open, t.id)
	}
}

func (lm *LogManager) nextLSN() uint64 {
	return atomic.AddUint64(&lm.lsn, 1)
}

/*
raiseLSN makes sure that new sequence numbers are greater than a given one.
*/
func (lm *LogManager) raiseLSN(lsn uint64) {
	for {
		cur := atomic.LoadUint64(&lm.lsn)
		if cur >= lsn || atomic.CompareAndSwapUint64(&lm.lsn, cur, lsn) {
			return
		}
	}
}

/*
AddObserver adds an observer which is called for every committed entry.
*/
func (lm *LogManager) AddObserver(callback func(e *changelog.Entry)) {
	lm.pump.AddObserver(EventCommitted, nil, func(event string, source interface{}) {
		callback(source.(*changelog.Entry))
	})
}

/*
Start starts a new transaction.
*/
func (lm *LogManager) Start(ctx context.Context) (*Trans, error) {
	if err := ctx.Err(); err != nil {
		return nil, &util.GraphError{Type: util.ErrServiceUnavailable, Detail: err.Error()}
	}

	return &Trans{uuid.New().String(), lm, StateParsed, nil}, nil
}

/*
Commit writes all changes of a transaction to the log and writes recorded
data values to the store. All changes are compensated if the commit fails.
*/
func (lm *LogManager) Commit(ctx context.Context, t *Trans) error {
	if t.state == StateCommitted || t.state == StateRolledBack {
		return t.stateError("committed")
	}

	lm.commit.Lock()
	defer lm.commit.Unlock()

	var written []string

	err := func() error {

		if lm.store == nil {
			for _, e := range t.entries {
				if e.Source == changelog.SourceData {
					return &util.GraphError{Type: util.ErrServiceUnavailable,
						Detail: "Data values require a store"}
				}
			}
			return nil
		}

		for _, e := range t.entries {
			b, err := lm.codec.Encode(e)

			if err == nil {
				key := LogKey(lm.scope, e.LSN)

				if err = lm.store.Insert(ctx, key, b); err == nil {
					written = append(written, key)
				}
			}

			if err != nil {
				return err
			}
		}

		for _, e := range t.entries {
			if e.Source == changelog.SourceData {
				if err := lm.dm.Build(ctx, lm.gm, e); err != nil {
					return err
				}
			}
		}

		return nil
	}()

	if err != nil {
		logger.Warning(fmt.Sprintf("Commit of %v failed: %v", t, err))

		for _, key := range written {

			// Use a fresh context so a cancelled commit is cleaned up

			if derr := lm.store.Delete(context.Background(), key); derr != nil {
				logger.Error(fmt.Sprintf("Could not remove log entry %v: %v", key, derr))
			}
		}

		if rerr := lm.RollbackTrans(ctx, t); rerr != nil {
			logger.Error(fmt.Sprintf("Rollback of %v failed: %v", t, rerr))
		}

		return err
	}

	if len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1].LSN

		lm.gm.Update(nil, func(s *graph.Section) error {
			s.AdvanceLSN(last)
			return nil
		})
	}

	t.state = StateCommitted
	lm.setOpen(t, false)
	atomic.AddUint64(&lm.stats.Committed, 1)

	logger.Debug(fmt.Sprintf("Committed %v", t))

	for _, e := range t.entries {
		lm.pump.PostEvent(EventCommitted, e)
	}

	return nil
}

/*
Rollback compensates a single change log entry.
*/
func (lm *LogManager) Rollback(ctx context.Context, e *changelog.Entry) error {
	return lm.dm.Compensate(ctx, lm.gm, e)
}

/*
RollbackTrans compensates all changes of a transaction in reverse order.
Compensation continues if a single entry cannot be compensated; all errors
are returned together.
*/
func (lm *LogManager) RollbackTrans(ctx context.Context, t *Trans) error {
	if t.state == StateCommitted || t.state == StateRolledBack {
		return t.stateError("rolled back")
	}

	errs := errorutil.NewCompositeError()

	lm.gm.Update(nil, func(s *graph.Section) error {
		for i := len(t.entries) - 1; i >= 0; i-- {
			e := t.entries[i]

			// Data values are only written on commit

			if e.Source == changelog.SourceData {
				continue
			}

			if err := lm.dm.CompensateSection(ctx, s, e); err != nil {
				errs.Add(err)
			}
		}
		return nil
	})

	t.state = StateRolledBack
	lm.setOpen(t, false)
	atomic.AddUint64(&lm.stats.RolledBack, 1)

	if errs.HasErrors() {
		return errs
	}

	return nil
}

/*
Recovery replays all log entries of a scope whose LSN is greater than the
LSN of the GraphMap. The latest checkpoint of the scope is loaded first if
it is newer than the GraphMap.
*/
func (lm *LogManager) Recovery(ctx context.Context, scope string) error {
	if scope == "" {
		scope = lm.scope
	}

	if lm.store == nil {
		return &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: "Recovery requires a store"}
	}

	if err := lm.loadCheckpoint(ctx, scope); err != nil {
		return err
	}

	keys, err := lm.store.Keys(ctx, logPrefix(scope))
	if err != nil {
		return err
	}

	var entries []*changelog.Entry

	mapLSN := lm.gm.LastLSN()

	for _, key := range keys {
		lsn, err := strconv.ParseUint(strings.TrimPrefix(key, logPrefix(scope)), 10, 64)
		if err != nil {
			return util.NewGraphError(util.ErrCorruptedLog, "Invalid log key %v", key)
		}

		lm.raiseLSN(lsn)

		if lsn <= mapLSN {
			continue
		}

		b, err := lm.store.Get(ctx, key)
		if err != nil {
			return err
		}

		e, err := lm.codec.Decode(b)
		if err != nil {
			return err
		} else if e.LSN != lsn {
			return util.NewGraphError(util.ErrCorruptedLog, "Entry %v is stored under key %v", e, key)
		}

		entries = append(entries, e)
	}

	changelog.SortEntries(entries)

	for _, e := range entries {
		if err := lm.dm.Build(ctx, lm.gm, e); err != nil {
			return err
		}

		atomic.AddUint64(&lm.stats.Recovered, 1)
	}

	lm.raiseLSN(lm.gm.LastLSN())

	logger.Info(fmt.Sprintf("Recovered %v log entries of scope %v - %v",
		len(entries), scope, lm.gm))

	return nil
}

/*
loadCheckpoint loads the checkpoint of a scope if it is newer than the
GraphMap.
*/
func (lm *LogManager) loadCheckpoint(ctx context.Context, scope string) error {
	var snap graph.Snapshot

	b, err := lm.store.Get(ctx, checkpointKey(scope))
	if err != nil || b == nil {
		return err
	}

	if err := json.Unmarshal(b, &snap); err != nil {
		return util.NewGraphError(util.ErrCorruptedLog, "Invalid checkpoint: %v", err)
	}

	if snap.LSN <= lm.gm.LastLSN() {
		return nil
	}

	lm.raiseLSN(snap.LSN)

	return lm.gm.Update(nil, func(s *graph.Section) error {
		return s.Restore(&snap)
	})
}

/*
Checkpoint writes a snapshot of the GraphMap to the store and removes all log
entries which are part of the snapshot. A snapshot must only contain
committed changes; the checkpoint is refused while transactions are open.
*/
func (lm *LogManager) Checkpoint(ctx context.Context) error {
	var snap *graph.Snapshot

	if lm.store == nil {
		return &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: "Checkpoints require a store"}
	}

	lm.commit.Lock()
	defer lm.commit.Unlock()

	err := lm.gm.View(func(s *graph.Section) error {

		// Open transactions register before they change the map

		if n := lm.OpenTrans(); n > 0 {
			return util.NewGraphError(util.ErrServiceUnavailable,
				"Cannot write checkpoint while %v transactions are open", n)
		}

		snap = s.Snapshot()
		return nil
	})

	if err != nil {
		return err
	}

	b, err := json.Marshal(snap)
	if err == nil {
		err = lm.store.Set(ctx, checkpointKey(lm.scope), b)
	}

	if err != nil {
		return err
	}

	keys, err := lm.store.Keys(ctx, logPrefix(lm.scope))
	if err != nil {
		return err
	}

	removed := 0

	for _, key := range keys {
		if key > LogKey(lm.scope, snap.LSN) {
			break
		}

		if err := lm.store.Delete(ctx, key); err != nil {
			return err
		}

		removed++
	}

	logger.Info(fmt.Sprintf("Checkpoint at LSN %v written - removed %v log entries",
		snap.LSN, removed))

	return nil
}

/*
GetData returns an opaque data value or nil if it does not exist.
*/
func (lm *LogManager) GetData(ctx context.Context, key string) ([]byte, error) {
	if lm.store == nil {
		return nil, &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: "Data values require a store"}
	}

	return lm.store.Get(ctx, DataKey(key))
}

/*
DataKeys returns all keys of opaque data values.
*/
func (lm *LogManager) DataKeys(ctx context.Context) ([]string, error) {
	if lm.store == nil {
		return nil, &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: "Data values require a store"}
	}

	keys, err := lm.store.Keys(ctx, DataKey(""))

	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, DataKey(""))
	}

	return keys, err
}

/*
dataStore maps data keys of log entries into their own key space.
*/
type dataStore struct {
	storage.Store
}

func (ds *dataStore) Set(ctx context.Context, key string, value []byte) error {
	return ds.Store.Set(ctx, DataKey(key), value)
}

func (ds *dataStore) Delete(ctx context.Context, key string) error {
	return ds.Store.Delete(ctx, DataKey(key))
}
