// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"sort"
	"sync"

	"github.com/corral-io/corral/model"
)

// RefreshPolicy decides what happens to previously merged data when a new
// fetch cycle begins.
type RefreshPolicy int

const (
	// KeepStaleWhileRevalidating keeps the last cycle's records visible and
	// replaces them source by source as fresh batches arrive.
	KeepStaleWhileRevalidating RefreshPolicy = iota

	// ClearOnRefresh empties the combined view at the start of every cycle.
	ClearOnRefresh
)

// Accumulator merges per-target batches into one combined, deterministically
// ordered result. It is decoupled from the fetch concurrency: batches may be
// appended in any order and the snapshot is re-sorted after every merge.
type Accumulator struct {
	policy RefreshPolicy

	lock     sync.Mutex
	bySource map[string]map[string]model.Record
}

func NewAccumulator(policy RefreshPolicy) *Accumulator {
	return &Accumulator{
		policy:   policy,
		bySource: map[string]map[string]model.Record{},
	}
}

// Begin marks the start of a fetch cycle.
func (a *Accumulator) Begin() {
	if a.policy != ClearOnRefresh {
		return
	}
	a.lock.Lock()
	a.bySource = map[string]map[string]model.Record{}
	a.lock.Unlock()
}

// Merge replaces one source's records wholesale. Duplicate ids within the
// batch collapse, last write wins.
func (a *Accumulator) Merge(source string, records []model.Record) {
	byID := make(map[string]model.Record, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	a.lock.Lock()
	a.bySource[source] = byID
	a.lock.Unlock()
}

// Snapshot returns the combined records sorted by recency: timestamp
// descending, ties broken by source and id descending so presentation order
// is deterministic regardless of batch completion order.
func (a *Accumulator) Snapshot() []model.Record {
	a.lock.Lock()
	var combined []model.Record
	for _, byID := range a.bySource {
		for _, record := range byID {
			combined = append(combined, record)
		}
	}
	a.lock.Unlock()

	sort.Slice(combined, func(i, j int) bool {
		ri, rj := combined[i], combined[j]
		if ri.Timestamp != rj.Timestamp {
			return ri.Timestamp > rj.Timestamp
		}
		if ri.SourceProjectID != rj.SourceProjectID {
			return ri.SourceProjectID > rj.SourceProjectID
		}
		return ri.ID > rj.ID
	})
	return combined
}
