// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "github.com/aclements/go-moremath/stats"

// LatencyStats is a Listener that accumulates the three stage
// latencies of every execution event it sees — enqueue-to-schedule,
// schedule-to-finish, and enqueue-to-finish — split out per timeline,
// and reports percentile/mean/stddev summaries on demand.
//
// Attach it alongside an application's own Listener with
// MultiListener; LatencyStats never needs to be the Correlator's only
// listener.
type LatencyStats struct {
	byTimeline map[string]*timelineSamples
}

type timelineSamples struct {
	enqueueToSchedule []float64
	scheduleToFinish  []float64
	enqueueToFinish   []float64
}

// NewLatencyStats creates an empty LatencyStats reporter.
func NewLatencyStats() *LatencyStats {
	return &LatencyStats{byTimeline: make(map[string]*timelineSamples)}
}

func (s *LatencyStats) OnGPUExecutionEvent(event ExecutionEvent) {
	t := s.byTimeline[event.Timeline]
	if t == nil {
		t = &timelineSamples{}
		s.byTimeline[event.Timeline] = t
	}
	t.enqueueToSchedule = append(t.enqueueToSchedule, nsToMs(event.THWScheduleNS-event.TUserEnqueueNS))
	t.scheduleToFinish = append(t.scheduleToFinish, nsToMs(event.THWFinishNS-event.THWScheduleNS))
	t.enqueueToFinish = append(t.enqueueToFinish, nsToMs(event.THWFinishNS-event.TUserEnqueueNS))
}

func nsToMs(ns uint64) float64 {
	return float64(ns) / 1e6
}

// LatencySummary holds a distribution's summary statistics, all in
// milliseconds.
type LatencySummary struct {
	N      int
	Mean   float64
	StdDev float64
	P50    float64
	P99    float64
}

func summarize(xs []float64) LatencySummary {
	if len(xs) == 0 {
		return LatencySummary{}
	}
	samp := stats.Sample{Xs: xs}
	return LatencySummary{
		N:      len(xs),
		Mean:   samp.Mean(),
		StdDev: samp.StdDev(),
		P50:    samp.Percentile(0.50),
		P99:    samp.Percentile(0.99),
	}
}

// TimelineSummary is the set of latency distributions tracked for one
// timeline.
type TimelineSummary struct {
	EnqueueToSchedule LatencySummary
	ScheduleToFinish  LatencySummary
	EnqueueToFinish   LatencySummary
}

// Summary returns the latency distributions seen for timeline so far,
// or false if no event on that timeline has been observed.
func (s *LatencyStats) Summary(timeline string) (TimelineSummary, bool) {
	t, ok := s.byTimeline[timeline]
	if !ok {
		return TimelineSummary{}, false
	}
	return TimelineSummary{
		EnqueueToSchedule: summarize(t.enqueueToSchedule),
		ScheduleToFinish:  summarize(t.scheduleToFinish),
		EnqueueToFinish:   summarize(t.enqueueToFinish),
	}, true
}

// Timelines returns the names of every timeline this reporter has
// seen at least one event for.
func (s *LatencyStats) Timelines() []string {
	names := make([]string, 0, len(s.byTimeline))
	for name := range s.byTimeline {
		names = append(names, name)
	}
	return names
}
