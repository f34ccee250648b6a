// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Tracepoint category/name pairs this correlator relies on. These are
// the only three tracepoints the depth/join logic understands; any
// other common_type seen by a Correlator is reported as unknown and
// dropped.
const (
	CategoryUserEnqueue = "amdgpu"
	NameUserEnqueue     = "amdgpu_cs_ioctl"
	CategoryHWSchedule  = "amdgpu"
	NameHWSchedule      = "amdgpu_sched_run_job"
	CategoryHWFinish    = "dma_fence"
	NameHWFinish        = "dma_fence_signaled"

	tracingEventsRoot = "/sys/kernel/debug/tracing/events"
)

// TracepointIDs holds the kernel-assigned numeric tracepoint ids for
// the three stages this correlator tracks. A field is -1 if the
// corresponding tracepoint was not available on this kernel (e.g. the
// running kernel lacks an AMD GPU, or debugfs tracing isn't mounted).
type TracepointIDs struct {
	UserEnqueue int32
	HWSchedule  int32
	HWFinish    int32
}

// LookupTracepoint resolves a (category, name) pair to the
// kernel-assigned numeric tracepoint id by reading
// /sys/kernel/debug/tracing/events/<category>/<name>/id. It returns
// -1 on any I/O or parse failure; failures are not distinguished
// further because the only recourse for the caller is to disable GPU
// correlation.
func LookupTracepoint(category, name string) int32 {
	return lookupTracepointIn(tracingEventsRoot, category, name)
}

// lookupTracepointIn is LookupTracepoint parameterized over the
// tracing events root, so tests can point it at a fake sysfs tree
// instead of requiring the real debugfs mount.
func lookupTracepointIn(root, category, name string) int32 {
	path := root + "/" + category + "/" + name + "/id"
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return -1
	}
	line := strings.TrimSpace(scanner.Text())
	id, err := strconv.ParseInt(line, 10, 32)
	if err != nil {
		return -1
	}
	return int32(id)
}

// LookupAllTracepoints resolves the three tracepoint ids this
// correlator needs. The caller should check each field for -1 and
// decide whether to proceed without GPU tracing; LookupAllTracepoints
// itself never fails.
func LookupAllTracepoints() TracepointIDs {
	return TracepointIDs{
		UserEnqueue: LookupTracepoint(CategoryUserEnqueue, NameUserEnqueue),
		HWSchedule:  LookupTracepoint(CategoryHWSchedule, NameHWSchedule),
		HWFinish:    LookupTracepoint(CategoryHWFinish, NameHWFinish),
	}
}
