// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gputrace correlates raw GPU tracepoint records from a
// kernel performance-counter ring buffer into completed GPU
// execution events.
//
// A caller that has already demultiplexed perf_event ring-buffer
// records feeds each amdgpu/dma_fence tracepoint record to a
// Correlator via AddTracepointEvent. Once a submission's user-space
// enqueue, hardware schedule, and hardware finish tracepoints have
// all arrived, the Correlator emits one ExecutionEvent to the
// Listener set with SetListener.
package gputrace // import "github.com/spoorthyvv/orbit/gputrace"
