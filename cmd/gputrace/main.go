// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gputrace replays a recorded stream of raw GPU tracepoint
// records through the correlator and prints each completed execution
// event, followed by a latency summary per timeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spoorthyvv/orbit/gputrace"
)

func main() {
	var (
		flagInput = flag.String("i", "gputrace.bin", "input recorded-stream `file`")
		flagBound = flag.Int("max-pending", 0, "bound the pending join table to this many entries (0 = unbounded)")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	tpIDs := gputrace.LookupAllTracepoints()

	var corr *gputrace.Correlator
	if *flagBound > 0 {
		corr = gputrace.NewBoundedCorrelator(tpIDs, *flagBound)
	} else {
		corr = gputrace.NewCorrelator(tpIDs)
	}

	latency := gputrace.NewLatencyStats()
	printer := gputrace.ListenerFunc(func(event gputrace.ExecutionEvent) {
		fmt.Printf("%+v\n", event)
	})
	corr.SetListener(gputrace.MultiListener{printer, latency})

	rs := gputrace.NewReplayStream(f)
	for rs.Next() {
		// Errors are logged and counted inside the correlator;
		// replay keeps going on a per-record decode failure.
		corr.AddTracepointEvent(rs.Header(), rs.Record())
	}
	if err := rs.Err(); err != nil {
		log.Fatal(err)
	}

	if n := corr.MalformedCount(); n > 0 {
		fmt.Printf("dropped %d malformed records\n", n)
	}
	if n := corr.EvictedCount(); n > 0 {
		fmt.Printf("evicted %d pending entries (bounded join table)\n", n)
	}

	for _, timeline := range latency.Timelines() {
		summary, _ := latency.Summary(timeline)
		fmt.Printf("timeline %q:\n", timeline)
		fmt.Printf("  enqueue->schedule: %+v\n", summary.EnqueueToSchedule)
		fmt.Printf("  schedule->finish:  %+v\n", summary.ScheduleToFinish)
		fmt.Printf("  enqueue->finish:   %+v\n", summary.EnqueueToFinish)
	}
}
