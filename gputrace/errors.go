// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "fmt"

// MalformedRecordError indicates a raw tracepoint record failed a
// bounds or framing check: a stated raw size overran the buffer, a
// data_loc offset/length ran outside the payload, or a data_loc
// string was missing its terminating NUL. Malformed records are
// always dropped, never propagated as a hard failure.
type MalformedRecordError struct {
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed tracepoint record: %s", e.Reason)
}

// unknownTracepointError is returned (and logged once) when a record
// arrives with a common_type the registry never resolved to one of
// the three stages this correlator tracks.
type unknownTracepointError struct {
	commonType int32
}

func (e *unknownTracepointError) Error() string {
	return fmt.Sprintf("unknown tracepoint common_type %d", e.commonType)
}
