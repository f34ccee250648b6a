// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "encoding/binary"

// testTracepointIDs assigns small, distinct tracepoint ids for tests.
var testTracepointIDs = TracepointIDs{
	UserEnqueue: 100,
	HWSchedule:  101,
	HWFinish:    102,
}

func putU16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:], v) }
func putU32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
func putU64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }

// appendTimeline appends the NUL-terminated timeline string to the end
// of payload and returns the data_loc word describing it (to embed at
// the format's timeline offset), plus the extended payload.
func appendTimeline(payload []byte, timeline string) (loc uint32, full []byte) {
	off := len(payload)
	full = append(payload, []byte(timeline)...)
	full = append(full, 0) // NUL terminator
	length := len(timeline) + 1
	return uint32(length)<<16 | uint32(off), full
}

// buildRecord assembles a full raw ring-buffer record:
// [header][sample_id][u32 raw_size][payload].
func buildRecord(commonType uint16, pid int32, tid, cpu uint32, ts, streamID uint64, payload []byte) []byte {
	buf := make([]byte, headerSize+sampleIDSize+4)
	// header
	putU32(buf, 0, 0)
	putU16(buf, 4, 0)
	putU16(buf, 6, uint16(len(buf)+len(payload)-headerSize))
	// sample_id
	putU32(buf, headerSize+0, uint32(pid))
	putU32(buf, headerSize+4, tid)
	putU64(buf, headerSize+8, ts)
	putU32(buf, headerSize+16, cpu)
	putU64(buf, headerSize+20, streamID)
	// raw_size
	putU32(buf, headerSize+sampleIDSize, uint32(len(payload)))

	buf = append(buf, payload...)

	// Patch in common_type now that the payload is attached (the
	// caller already encoded common_pid into the payload itself).
	putU16(buf[headerSize+sampleIDSize+4:], 0, commonType)
	return buf
}

func buildUserEnqueuePayload(commonPID int32, timeline string, context, seqno uint32) []byte {
	fixed := make([]byte, userEnqueueFixedSize)
	putU32(fixed, 4, uint32(commonPID)) // common_pid
	loc, full := appendTimeline(fixed, timeline)
	putU32(full, userEnqueueTimelineOff, loc)
	putU32(full, userEnqueueContextOff, context)
	putU32(full, userEnqueueSeqnoOff, seqno)
	return full
}

func buildHWSchedulePayload(commonPID int32, timeline string, context, seqno uint32) []byte {
	fixed := make([]byte, hwScheduleFixedSize)
	putU32(fixed, 4, uint32(commonPID))
	loc, full := appendTimeline(fixed, timeline)
	putU32(full, hwScheduleTimelineOff, loc)
	putU32(full, hwScheduleContextOff, context)
	putU32(full, hwScheduleSeqnoOff, seqno)
	return full
}

func buildHWFinishPayload(commonPID int32, timeline string, context, seqno uint32) []byte {
	fixed := make([]byte, hwFinishFixedSize)
	putU32(fixed, 4, uint32(commonPID))
	loc, full := appendTimeline(fixed, timeline)
	putU32(full, hwFinishTimelineOff, loc)
	putU32(full, hwFinishContextOff, context)
	putU32(full, hwFinishSeqnoOff, seqno)
	return full
}

func buildUserEnqueueRecord(pid int32, ts uint64, timeline string, context, seqno uint32) []byte {
	return buildRecord(uint16(testTracepointIDs.UserEnqueue), pid, 1, 0, ts, 0,
		buildUserEnqueuePayload(pid, timeline, context, seqno))
}

func buildHWScheduleRecord(pid int32, ts uint64, timeline string, context, seqno uint32) []byte {
	return buildRecord(uint16(testTracepointIDs.HWSchedule), pid, 1, 0, ts, 0,
		buildHWSchedulePayload(pid, timeline, context, seqno))
}

func buildHWFinishRecord(pid int32, ts uint64, timeline string, context, seqno uint32) []byte {
	return buildRecord(uint16(testTracepointIDs.HWFinish), pid, 1, 0, ts, 0,
		buildHWFinishPayload(pid, timeline, context, seqno))
}
