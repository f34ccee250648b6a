// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "container/list"

// Key is the composite join key that identifies a single GPU
// submission: its client context, its monotonic sequence number
// within that context, and the timeline (queue) it was submitted to.
type Key struct {
	Context  uint32
	Seqno    uint32
	Timeline string
}

// pendingEntry is what's stored for a stage that has arrived without
// both of its peers yet. It carries everything a later match needs to
// build the three timestamps and the pid of the completed event.
type pendingEntry struct {
	TimestampNS uint64
	PID         int32
}

// joinTable is three independent key->entry maps, one per stage. A
// single-threaded owner is assumed; joinTable does no locking.
//
// If maxPending is nonzero, the table is bounded: once the combined
// population of all three maps reaches maxPending, inserting a new
// pending entry evicts the least-recently-inserted one (tracked
// across all three maps by a single LRU list) and bumps
// EvictedCount. This implements spec §5/§7's SHOULD for a bounded
// pending guard; with maxPending == 0 (the default from newJoinTable)
// the table is unbounded, matching the base design.
type joinTable struct {
	userEnqueue map[Key]pendingEntry
	hwSchedule  map[Key]pendingEntry
	hwFinish    map[Key]pendingEntry

	maxPending   int
	order        *list.List
	orderElem    map[lruKey]*list.Element
	EvictedCount int
}

type lruKey struct {
	stage Stage
	key   Key
}

func newJoinTable() *joinTable {
	return &joinTable{
		userEnqueue: make(map[Key]pendingEntry),
		hwSchedule:  make(map[Key]pendingEntry),
		hwFinish:    make(map[Key]pendingEntry),
	}
}

// newBoundedJoinTable creates a joinTable that evicts its
// least-recently-inserted pending entry once more than maxPending
// entries would be live across all three maps. maxPending must be > 0.
func newBoundedJoinTable(maxPending int) *joinTable {
	j := newJoinTable()
	j.maxPending = maxPending
	j.order = list.New()
	j.orderElem = make(map[lruKey]*list.Element)
	return j
}

func (j *joinTable) population() int {
	return len(j.userEnqueue) + len(j.hwSchedule) + len(j.hwFinish)
}

// touch records/refreshes lk's recency and evicts the oldest entry
// if this insertion would push the table over its bound.
func (j *joinTable) touch(lk lruKey) {
	if j.maxPending == 0 {
		return
	}
	if e, ok := j.orderElem[lk]; ok {
		j.order.MoveToBack(e)
		return
	}
	if j.population() >= j.maxPending {
		j.evictOldest()
	}
	j.orderElem[lk] = j.order.PushBack(lk)
}

func (j *joinTable) untouch(lk lruKey) {
	if j.maxPending == 0 {
		return
	}
	if e, ok := j.orderElem[lk]; ok {
		j.order.Remove(e)
		delete(j.orderElem, lk)
	}
}

func (j *joinTable) evictOldest() {
	front := j.order.Front()
	if front == nil {
		return
	}
	lk := front.Value.(lruKey)
	j.order.Remove(front)
	delete(j.orderElem, lk)
	delete(j.mapFor(lk.stage), lk.key)
	j.EvictedCount++
}

func (j *joinTable) mapFor(stage Stage) map[Key]pendingEntry {
	switch stage {
	case StageUserEnqueue:
		return j.userEnqueue
	case StageHWSchedule:
		return j.hwSchedule
	case StageHWFinish:
		return j.hwFinish
	default:
		panic("gputrace: unknown stage")
	}
}

func (j *joinTable) get(stage Stage, key Key) (pendingEntry, bool) {
	e, ok := j.mapFor(stage)[key]
	return e, ok
}

// insertOrReplace stores e as the pending entry for (stage, key),
// silently discarding any existing entry (invariant I1: the newer
// attempt wins).
func (j *joinTable) insertOrReplace(stage Stage, key Key, e pendingEntry) {
	j.touch(lruKey{stage, key})
	j.mapFor(stage)[key] = e
}

func (j *joinTable) erase(stage Stage, key Key) {
	j.untouch(lruKey{stage, key})
	delete(j.mapFor(stage), key)
}
