// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

// depthAssigner is a per-timeline greedy interval packer. For each
// timeline it keeps an ordered list of lanes; lane d's slot holds the
// finish timestamp of the most recent event packed into it. assign
// walks the lanes in order and reuses the first one whose prior
// occupant has already finished by the new interval's start,
// otherwise opens a new lane.
//
// Correctness (spec invariant I4) depends on the caller presenting
// intervals for a single timeline in non-decreasing start order,
// which is what the correlator does: it calls assign in record
// arrival order, and arrival order respects the per-CPU monotonic
// clock the sample timestamps come from.
type depthAssigner struct {
	// GraceNS optionally collapses events into the same lane even
	// when the next interval starts slightly before the previous
	// one finished. This is a rendering hint (the source this was
	// ported from used 20ms in one revision), never applied by
	// default, and never required for the invariants in spec §8.
	GraceNS uint64

	slots map[string][]uint64
}

func newDepthAssigner() *depthAssigner {
	return &depthAssigner{slots: make(map[string][]uint64)}
}

// assign returns the depth to use for an event spanning
// [start, end] on timeline, updating the timeline's lane state.
func (d *depthAssigner) assign(timeline string, start, end uint64) int {
	lanes := d.slots[timeline]
	for i, finish := range lanes {
		if start+d.GraceNS >= finish {
			lanes[i] = end
			return i
		}
	}
	lanes = append(lanes, end)
	d.slots[timeline] = lanes
	return len(lanes) - 1
}
