// Package cache implements the 16-set, 4-way set-associative write-back
// cache that sits in front of rv32.RAM, with pluggable LRU / bit-pLRU
// replacement.
package cache

import "github.com/lookbusy1344/rv32-cachesim/rv32"

// Line is one 64-byte cache line plus its metadata. The invariant
// "valid == false implies dirty == false" and "dirty == true implies
// valid == true" is maintained by refill/write/flush, never checked at
// read time.
type Line struct {
	Data  [rv32.CacheLineSize]byte
	Valid bool
	Dirty bool
	Tag   uint32
	PLRU  bool // "recently used" bit for the bit-pLRU policy
}

func newLine() Line {
	return Line{Tag: ^uint32(0)}
}

// byteIndex wraps an in-line offset; a load/store whose width would cross
// the line boundary wraps within the 64-byte line rather than touching the
// next line (documented reference behavior, see spec §4.8).
func byteIndex(offset uint32, i int) uint32 {
	return (offset + uint32(i)) % rv32.CacheLineSize
}

// ReadByte, ReadHalf and ReadWord reinterpret the line's bytes starting at
// offset as a little-endian unsigned integer of the named width.
func (l *Line) ReadByte(offset uint32) uint8 {
	return l.Data[byteIndex(offset, 0)]
}

func (l *Line) ReadHalf(offset uint32) uint16 {
	b0 := l.Data[byteIndex(offset, 0)]
	b1 := l.Data[byteIndex(offset, 1)]
	return uint16(b0) | uint16(b1)<<8
}

func (l *Line) ReadWord(offset uint32) uint32 {
	b0 := l.Data[byteIndex(offset, 0)]
	b1 := l.Data[byteIndex(offset, 1)]
	b2 := l.Data[byteIndex(offset, 2)]
	b3 := l.Data[byteIndex(offset, 3)]
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

// WriteByte, WriteHalf and WriteWord store value little-endian at offset and
// mark the line valid+dirty. A write that happens to rewrite identical bytes
// still dirties the line: per-byte modification is not tracked.
func (l *Line) WriteByte(offset uint32, value uint8) {
	l.Valid, l.Dirty = true, true
	l.Data[byteIndex(offset, 0)] = value
}

func (l *Line) WriteHalf(offset uint32, value uint16) {
	l.Valid, l.Dirty = true, true
	l.Data[byteIndex(offset, 0)] = byte(value)
	l.Data[byteIndex(offset, 1)] = byte(value >> 8)
}

func (l *Line) WriteWord(offset uint32, value uint32) {
	l.Valid, l.Dirty = true, true
	l.Data[byteIndex(offset, 0)] = byte(value)
	l.Data[byteIndex(offset, 1)] = byte(value >> 8)
	l.Data[byteIndex(offset, 2)] = byte(value >> 16)
	l.Data[byteIndex(offset, 3)] = byte(value >> 24)
}

// Refill installs new line contents from a fresh RAM read: clean, valid,
// tagged with newTag.
func (l *Line) Refill(data [rv32.CacheLineSize]byte, newTag uint32) {
	l.Data = data
	l.Valid = true
	l.Dirty = false
	l.Tag = newTag
}

// Invalidate resets the line to its at-rest state, as performed by flush.
func (l *Line) Invalidate() {
	l.Valid = false
	l.Dirty = false
	l.PLRU = false
	l.Tag = ^uint32(0)
}
