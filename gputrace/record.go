// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

// Header is the leading perf_event_header of a ring-buffer record:
// an 8-byte {type, misc, size} triple. The correlator does not read
// its fields: DecodeRecord skips the fixed headerSize bytes to reach
// the trailing sample_id block, and interpreting Type or Misc is the
// ring-buffer reader's job, which is out of scope here.
type Header struct {
	Type uint32
	Misc uint16
	Size uint16
}

const headerSize = 8

// SampleID is the perf sample_id block that trails the header on
// every record this correlator is fed (the caller must have opened
// the tracepoint events with sample_id_all set). It carries the
// fields spec'd in the data model: the originating thread/process,
// a monotonic-per-CPU timestamp, the CPU, and the stream id.
type SampleID struct {
	PID         uint32
	TID         uint32
	TimestampNS uint64
	CPU         uint32
	StreamID    uint64
}

const sampleIDSize = 4 + 4 + 8 + 4 + 8 // 28 bytes

// Stage identifies which of the three GPU tracepoints a decoded
// record belongs to.
type Stage int

const (
	StageUserEnqueue Stage = iota
	StageHWSchedule
	StageHWFinish
)

func (s Stage) String() string {
	switch s {
	case StageUserEnqueue:
		return "user-enqueue"
	case StageHWSchedule:
		return "hw-schedule"
	case StageHWFinish:
		return "hw-finish"
	default:
		return "unknown"
	}
}

// commonPrefix is the fixed header every kernel tracepoint format
// begins with, preceding the format-specific fields.
type commonPrefix struct {
	CommonType         uint16
	CommonFlags        uint8
	CommonPreemptCount uint8
	CommonPID          int32
}

const commonPrefixSize = 2 + 1 + 1 + 4 // 8 bytes

// Record is a decoded tracepoint record: the sample_id common to all
// three stages plus the composite join key and pid extracted from
// the format-specific payload.
type Record struct {
	Stage    Stage
	SampleID SampleID
	PID      int32 // format's common_pid, which is what's reported in ExecutionEvent
	Context  uint32
	Seqno    uint32
	Timeline string
}

// Key returns the composite join key this record correlates on.
func (r *Record) Key() Key {
	return Key{Context: r.Context, Seqno: r.Seqno, Timeline: r.Timeline}
}

// DecodeRecord parses one raw ring-buffer record, laid out as
// [header][sample_id][u32 raw_size][raw payload]. tpIDs resolves
// common_type to a Stage. It returns an *unknownTracepointError if
// common_type doesn't match any of the three tracked tracepoints, or
// a *MalformedRecordError if the stated raw size overruns buf or the
// embedded timeline string is out of bounds or unterminated.
func DecodeRecord(tpIDs TracepointIDs, buf []byte) (*Record, error) {
	if len(buf) < headerSize+sampleIDSize+4 {
		return nil, &MalformedRecordError{Reason: "record shorter than header+sample_id+raw_size"}
	}

	bd := &bufDecoder{buf: buf[headerSize:]}
	var sid SampleID
	sid.PID = bd.u32()
	sid.TID = bd.u32()
	sid.TimestampNS = bd.u64()
	sid.CPU = bd.u32()
	sid.StreamID = bd.u64()

	rawSize := bd.u32()
	payloadStart := headerSize + sampleIDSize + 4
	if int(rawSize) < commonPrefixSize || payloadStart+int(rawSize) > len(buf) {
		return nil, &MalformedRecordError{Reason: "raw_size overruns record buffer"}
	}
	payload := buf[payloadStart : payloadStart+int(rawSize)]

	commonType := int32(uint16(payload[0]) | uint16(payload[1])<<8)

	var stage Stage
	switch commonType {
	case tpIDs.UserEnqueue:
		stage = StageUserEnqueue
	case tpIDs.HWSchedule:
		stage = StageHWSchedule
	case tpIDs.HWFinish:
		stage = StageHWFinish
	default:
		return nil, &unknownTracepointError{commonType: commonType}
	}

	rec := &Record{Stage: stage, SampleID: sid}
	var err error
	switch stage {
	case StageUserEnqueue:
		err = decodeUserEnqueue(payload, rec)
	case StageHWSchedule:
		err = decodeHWSchedule(payload, rec)
	case StageHWFinish:
		err = decodeHWFinish(payload, rec)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Fixed-offset layouts of the three tracepoint formats, per the
// kernel format files named in spec §6. Offsets are from the start
// of the raw payload (i.e. the start of commonPrefix), which is also
// the data_loc "record base".
const (
	userEnqueueFixedSize   = commonPrefixSize + 4 /*sched_job_id*/ + 4 /*timeline*/ + 4 /*context*/ + 4 /*seqno*/ + 8 /*dma_fence*/ + 8 /*ring_name*/ + 4 /*num_ibs*/
	userEnqueueTimelineOff = commonPrefixSize + 4
	userEnqueueContextOff  = commonPrefixSize + 8
	userEnqueueSeqnoOff    = commonPrefixSize + 12

	hwScheduleFixedSize   = commonPrefixSize + 4 /*sched_job_id*/ + 4 /*timeline*/ + 4 /*context*/ + 4 /*seqno*/ + 8 /*ring_name*/ + 4 /*num_ibs*/
	hwScheduleTimelineOff = commonPrefixSize + 4
	hwScheduleContextOff  = commonPrefixSize + 8
	hwScheduleSeqnoOff    = commonPrefixSize + 12

	hwFinishFixedSize   = commonPrefixSize + 4 /*driver*/ + 4 /*timeline*/ + 4 /*context*/ + 4 /*seqno*/
	hwFinishTimelineOff = commonPrefixSize + 4
	hwFinishContextOff  = commonPrefixSize + 8
	hwFinishSeqnoOff    = commonPrefixSize + 12
)

func decodeCommonPID(payload []byte) int32 {
	return int32(uint32(payload[4]) | uint32(payload[5])<<8 | uint32(payload[6])<<16 | uint32(payload[7])<<24)
}

func decodeUserEnqueue(payload []byte, rec *Record) error {
	if len(payload) < userEnqueueFixedSize {
		return &MalformedRecordError{Reason: "amdgpu_cs_ioctl payload too short"}
	}
	rec.PID = decodeCommonPID(payload)
	loc := dataLoc(le32(payload[userEnqueueTimelineOff:]))
	tl, err := loc.resolve(payload)
	if err != nil {
		return err
	}
	rec.Timeline = tl
	rec.Context = le32(payload[userEnqueueContextOff:])
	rec.Seqno = le32(payload[userEnqueueSeqnoOff:])
	return nil
}

func decodeHWSchedule(payload []byte, rec *Record) error {
	if len(payload) < hwScheduleFixedSize {
		return &MalformedRecordError{Reason: "amdgpu_sched_run_job payload too short"}
	}
	rec.PID = decodeCommonPID(payload)
	loc := dataLoc(le32(payload[hwScheduleTimelineOff:]))
	tl, err := loc.resolve(payload)
	if err != nil {
		return err
	}
	rec.Timeline = tl
	rec.Context = le32(payload[hwScheduleContextOff:])
	rec.Seqno = le32(payload[hwScheduleSeqnoOff:])
	return nil
}

func decodeHWFinish(payload []byte, rec *Record) error {
	if len(payload) < hwFinishFixedSize {
		return &MalformedRecordError{Reason: "dma_fence_signaled payload too short"}
	}
	rec.PID = decodeCommonPID(payload)
	loc := dataLoc(le32(payload[hwFinishTimelineOff:]))
	tl, err := loc.resolve(payload)
	if err != nil {
		return err
	}
	rec.Timeline = tl
	rec.Context = le32(payload[hwFinishContextOff:])
	rec.Seqno = le32(payload[hwFinishSeqnoOff:])
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
