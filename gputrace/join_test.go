// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "testing"

func TestJoinTableInsertGetErase(t *testing.T) {
	j := newJoinTable()
	k := Key{Context: 7, Seqno: 42, Timeline: "gfx"}

	if _, ok := j.get(StageUserEnqueue, k); ok {
		t.Fatal("get() on empty table returned ok=true")
	}

	j.insertOrReplace(StageUserEnqueue, k, pendingEntry{TimestampNS: 1000, PID: 100})
	got, ok := j.get(StageUserEnqueue, k)
	if !ok || got.TimestampNS != 1000 || got.PID != 100 {
		t.Errorf("get() = %+v, %v, want {1000 100}, true", got, ok)
	}

	j.erase(StageUserEnqueue, k)
	if _, ok := j.get(StageUserEnqueue, k); ok {
		t.Error("get() after erase() returned ok=true")
	}
}

// I1: a second insert for the same (stage, key) replaces the first
// rather than coexisting.
func TestJoinTableInsertOrReplaceReplaces(t *testing.T) {
	j := newJoinTable()
	k := Key{Context: 7, Seqno: 42, Timeline: "gfx"}

	j.insertOrReplace(StageUserEnqueue, k, pendingEntry{TimestampNS: 1000, PID: 100})
	j.insertOrReplace(StageUserEnqueue, k, pendingEntry{TimestampNS: 2000, PID: 100})

	got, ok := j.get(StageUserEnqueue, k)
	if !ok || got.TimestampNS != 2000 {
		t.Errorf("get() = %+v, want TimestampNS=2000 (the replacement)", got)
	}
	if j.population() != 1 {
		t.Errorf("population() = %d, want 1 (replace must not grow the table)", j.population())
	}
}

func TestJoinTableStagesAreIndependent(t *testing.T) {
	j := newJoinTable()
	k := Key{Context: 7, Seqno: 42, Timeline: "gfx"}

	j.insertOrReplace(StageUserEnqueue, k, pendingEntry{TimestampNS: 1000, PID: 100})
	if _, ok := j.get(StageHWSchedule, k); ok {
		t.Error("StageHWSchedule saw an entry inserted under StageUserEnqueue")
	}
	if j.population() != 1 {
		t.Errorf("population() = %d, want 1", j.population())
	}
}

func TestBoundedJoinTableEvictsOldest(t *testing.T) {
	j := newBoundedJoinTable(2)
	k1 := Key{Context: 1, Seqno: 1, Timeline: "gfx"}
	k2 := Key{Context: 2, Seqno: 2, Timeline: "gfx"}
	k3 := Key{Context: 3, Seqno: 3, Timeline: "gfx"}

	j.insertOrReplace(StageUserEnqueue, k1, pendingEntry{TimestampNS: 1000})
	j.insertOrReplace(StageUserEnqueue, k2, pendingEntry{TimestampNS: 2000})
	if j.EvictedCount != 0 {
		t.Fatalf("EvictedCount = %d, want 0 before exceeding the bound", j.EvictedCount)
	}

	// Third insert pushes the table over its bound of 2: k1 (oldest)
	// must be evicted.
	j.insertOrReplace(StageUserEnqueue, k3, pendingEntry{TimestampNS: 3000})
	if j.EvictedCount != 1 {
		t.Fatalf("EvictedCount = %d, want 1", j.EvictedCount)
	}
	if _, ok := j.get(StageUserEnqueue, k1); ok {
		t.Error("k1 should have been evicted as least-recently-inserted")
	}
	if _, ok := j.get(StageUserEnqueue, k2); !ok {
		t.Error("k2 should still be pending")
	}
	if _, ok := j.get(StageUserEnqueue, k3); !ok {
		t.Error("k3 should still be pending")
	}
}

func TestBoundedJoinTableEraseUpdatesRecency(t *testing.T) {
	j := newBoundedJoinTable(2)
	k1 := Key{Context: 1, Seqno: 1, Timeline: "gfx"}
	k2 := Key{Context: 2, Seqno: 2, Timeline: "gfx"}
	k3 := Key{Context: 3, Seqno: 3, Timeline: "gfx"}

	j.insertOrReplace(StageUserEnqueue, k1, pendingEntry{TimestampNS: 1000})
	j.insertOrReplace(StageUserEnqueue, k2, pendingEntry{TimestampNS: 2000})
	j.erase(StageUserEnqueue, k1)

	j.insertOrReplace(StageUserEnqueue, k3, pendingEntry{TimestampNS: 3000})
	if j.EvictedCount != 0 {
		t.Fatalf("EvictedCount = %d, want 0 (population was back under the bound after erase)", j.EvictedCount)
	}
	if _, ok := j.get(StageUserEnqueue, k2); !ok {
		t.Error("k2 should still be pending")
	}
	if _, ok := j.get(StageUserEnqueue, k3); !ok {
		t.Error("k3 should still be pending")
	}
}

func TestUnboundedJoinTableNeverEvicts(t *testing.T) {
	j := newJoinTable()
	for i := uint32(0); i < 1000; i++ {
		j.insertOrReplace(StageUserEnqueue, Key{Context: i, Seqno: i, Timeline: "gfx"}, pendingEntry{TimestampNS: uint64(i)})
	}
	if j.EvictedCount != 0 {
		t.Errorf("EvictedCount = %d, want 0 for an unbounded table", j.EvictedCount)
	}
	if j.population() != 1000 {
		t.Errorf("population() = %d, want 1000", j.population())
	}
}
