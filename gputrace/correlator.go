// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "log"

// Correlator is the GPU execution-event state machine. It consumes
// decoded tracepoint records in arrival order and, once all three
// stages of a submission have arrived, emits a completed
// ExecutionEvent to its Listener.
//
// Correlator is single-threaded cooperative: AddTracepointEvent must
// only ever be called from one goroutine at a time, and must not be
// re-entered from within a Listener callback.
type Correlator struct {
	tpIDs    TracepointIDs
	join     *joinTable
	depth    *depthAssigner
	listener Listener

	loggedUnknown map[int32]bool
	malformed     int
}

// NewCorrelator creates a Correlator that recognizes the three
// tracepoint ids in tpIDs. A tpIDs field left at -1 (tracepoint not
// available on this kernel) simply means records of that stage are
// never produced by the caller; DecodeRecord will report any record
// bearing that id as unknown.
func NewCorrelator(tpIDs TracepointIDs) *Correlator {
	return &Correlator{
		tpIDs:         tpIDs,
		join:          newJoinTable(),
		depth:         newDepthAssigner(),
		loggedUnknown: make(map[int32]bool),
	}
}

// NewBoundedCorrelator is NewCorrelator with a bounded pending-entry
// guard (spec §5/§7's "SHOULD expose a bounded LRU with eviction
// counter"): once more than maxPending stage records are pending
// across all three join maps, the least-recently-inserted one is
// evicted and EvictedCount is incremented. maxPending must be > 0.
func NewBoundedCorrelator(tpIDs TracepointIDs, maxPending int) *Correlator {
	return &Correlator{
		tpIDs:         tpIDs,
		join:          newBoundedJoinTable(maxPending),
		depth:         newDepthAssigner(),
		loggedUnknown: make(map[int32]bool),
	}
}

// EvictedCount returns the number of pending entries dropped by the
// bounded join-table guard (always 0 for a Correlator created with
// NewCorrelator).
func (c *Correlator) EvictedCount() int {
	return c.join.EvictedCount
}

// SetListener installs the out-edge for completed events. The
// correlator holds a non-owning reference; it is a programmer error
// (and fatal) for a record to complete an event before a listener is
// set.
func (c *Correlator) SetListener(l Listener) {
	c.listener = l
}

// MalformedCount returns the number of records dropped so far for
// failing decode bounds checks.
func (c *Correlator) MalformedCount() int {
	return c.malformed
}

// AddTracepointEvent decodes one raw ring-buffer record — laid out as
// [header][sample_id][u32 raw_size][raw payload] — and runs it
// through the join/correlation state machine.
//
// Malformed records are dropped and counted (MalformedCount); an
// unrecognized common_type is logged once per id and dropped. In both
// cases the decode error is also returned to the caller, so tests and
// instrumentation can observe what happened; the record is not
// retried and the pending join state is left unchanged.
func (c *Correlator) AddTracepointEvent(header Header, data []byte) error {
	rec, err := DecodeRecord(c.tpIDs, data)
	if err != nil {
		if ute, ok := err.(*unknownTracepointError); ok {
			if !c.loggedUnknown[ute.commonType] {
				c.loggedUnknown[ute.commonType] = true
				log.Printf("gputrace: dropping record with unrecognized common_type %d", ute.commonType)
			}
			return err
		}
		c.malformed++
		log.Printf("gputrace: dropping malformed record: %v", err)
		return err
	}

	c.onRecord(rec)
	return nil
}

// onRecord implements the per-stage arrival rule from spec §4.4: look
// up the other two stages; if both are pending, emit and erase all
// three; otherwise store this record pending, replacing any existing
// pending record for the same key (I1).
func (c *Correlator) onRecord(rec *Record) {
	key := rec.Key()
	entry := pendingEntry{TimestampNS: rec.SampleID.TimestampNS, PID: rec.PID}

	switch rec.Stage {
	case StageUserEnqueue:
		hwS, okS := c.join.get(StageHWSchedule, key)
		hwF, okF := c.join.get(StageHWFinish, key)
		if okS && okF {
			c.emit(rec.PID, key, entry.TimestampNS, hwS.TimestampNS, hwF.TimestampNS)
			c.join.erase(StageHWSchedule, key)
			c.join.erase(StageHWFinish, key)
			return
		}
		c.join.insertOrReplace(StageUserEnqueue, key, entry)

	case StageHWSchedule:
		u, okU := c.join.get(StageUserEnqueue, key)
		hwF, okF := c.join.get(StageHWFinish, key)
		if okU && okF {
			c.emit(rec.PID, key, u.TimestampNS, entry.TimestampNS, hwF.TimestampNS)
			c.join.erase(StageUserEnqueue, key)
			c.join.erase(StageHWFinish, key)
			return
		}
		c.join.insertOrReplace(StageHWSchedule, key, entry)

	case StageHWFinish:
		u, okU := c.join.get(StageUserEnqueue, key)
		hwS, okS := c.join.get(StageHWSchedule, key)
		if okU && okS {
			c.emit(rec.PID, key, u.TimestampNS, hwS.TimestampNS, entry.TimestampNS)
			c.join.erase(StageUserEnqueue, key)
			c.join.erase(StageHWSchedule, key)
			return
		}
		c.join.insertOrReplace(StageHWFinish, key, entry)
	}
}

func (c *Correlator) emit(pid int32, key Key, tUser, tSched, tFinish uint64) {
	depth := c.depth.assign(key.Timeline, tSched, tFinish)

	if c.listener == nil {
		log.Fatal("gputrace: OnGPUExecutionEvent emitted with no listener set")
	}
	c.listener.OnGPUExecutionEvent(ExecutionEvent{
		PID:            pid,
		Timeline:       key.Timeline,
		Context:        key.Context,
		Seqno:          key.Seqno,
		Depth:          depth,
		TUserEnqueueNS: tUser,
		THWScheduleNS:  tSched,
		THWFinishNS:    tFinish,
	})
}
