// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import (
	"encoding/binary"
	"io"
)

// ReplayStream iterates the records in the repo's own recorded-stream
// container format: a sequence of [u32 record length][record bytes],
// where each record is itself [header][sample_id][u32 raw_size]
// [payload] as described in DecodeRecord. This is a standalone
// on-disk format for replaying a captured session (see cmd/gputrace);
// it is not perf.data and it is not a ring buffer, both of which
// remain out of scope per spec §1.
//
// Typical usage:
//
//	rs := NewReplayStream(r)
//	for rs.Next() {
//	    corr.AddTracepointEvent(rs.Header(), rs.Record())
//	}
//	if err := rs.Err(); err != nil { ... }
type ReplayStream struct {
	r      io.Reader
	err    error
	record []byte
}

// NewReplayStream creates a ReplayStream reading from r.
func NewReplayStream(r io.Reader) *ReplayStream {
	return &ReplayStream{r: r}
}

// Next reads the next record into the stream's buffer. It returns
// false at end of stream or on the first read error.
func (rs *ReplayStream) Next() bool {
	if rs.err != nil {
		return false
	}
	var length uint32
	if err := binary.Read(rs.r, binary.LittleEndian, &length); err != nil {
		if err != io.EOF {
			rs.err = err
		}
		return false
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(rs.r, buf); err != nil {
		rs.err = err
		return false
	}
	rs.record = buf
	return true
}

// Record returns the raw record bytes read by the most recent Next.
func (rs *ReplayStream) Record() []byte {
	return rs.record
}

// Header decodes the perf_event_header at the start of the current
// record.
func (rs *ReplayStream) Header() Header {
	return Header{
		Type: binary.LittleEndian.Uint32(rs.record[0:4]),
		Misc: binary.LittleEndian.Uint16(rs.record[4:6]),
		Size: binary.LittleEndian.Uint16(rs.record[6:8]),
	}
}

// Err returns the first error encountered by Next, or nil if the
// stream ended cleanly at EOF.
func (rs *ReplayStream) Err() error {
	return rs.err
}
