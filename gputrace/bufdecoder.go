// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputrace

import "encoding/binary"

// bufDecoder reads fixed-width little-endian fields from the front of
// buf, advancing buf as it goes. It never copies the backing array.
type bufDecoder struct {
	buf []byte
}

func (b *bufDecoder) u16() uint16 {
	x := binary.LittleEndian.Uint16(b.buf)
	b.buf = b.buf[2:]
	return x
}

func (b *bufDecoder) u32() uint32 {
	x := binary.LittleEndian.Uint32(b.buf)
	b.buf = b.buf[4:]
	return x
}

func (b *bufDecoder) i32() int32 {
	return int32(b.u32())
}

func (b *bufDecoder) u64() uint64 {
	x := binary.LittleEndian.Uint64(b.buf)
	b.buf = b.buf[8:]
	return x
}

func (b *bufDecoder) u8() uint8 {
	x := b.buf[0]
	b.buf = b.buf[1:]
	return x
}

// dataLoc is a data_loc-encoded variable-length string descriptor:
// the high 16 bits are the length (including the trailing NUL), the
// low 16 bits are the byte offset from the record base.
type dataLoc uint32

func (d dataLoc) length() int {
	return int(uint32(d)>>16) & 0xFFFF
}

// offset returns the byte offset encoded in d.
//
// The source this format was reverse-engineered from masked with
// 0x00ff here, which truncates any offset past 255 bytes. The correct
// mask for a 16-bit offset field is 0xFFFF.
func (d dataLoc) offset() int {
	return int(uint32(d) & 0xFFFF)
}

// resolve reads the string d describes out of record, which must be
// the full tracepoint payload (the "record base" the offset is
// relative to). It returns MalformedRecord if the offset/length run
// outside record or the bytes contain no terminating NUL within
// length.
func (d dataLoc) resolve(record []byte) (string, error) {
	off, n := d.offset(), d.length()
	if n == 0 {
		return "", nil
	}
	if off < 0 || n < 0 || off+n > len(record) {
		return "", &MalformedRecordError{Reason: "data_loc out of bounds"}
	}
	field := record[off : off+n]
	nul := -1
	for i, c := range field {
		if c == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", &MalformedRecordError{Reason: "data_loc string has no terminating NUL"}
	}
	return string(field[:nul]), nil
}
