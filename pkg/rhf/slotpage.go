package rhf

import (
	"encoding/binary"

	"pfheap/pkg/config"
)

// Slotted page layout:
//
//	[PageHeader][Slot 0][Slot 1]...[Slot N-1] ... free ... [Record k]...[Record 0]
//
// free_space_ptr starts at the page size and decreases as records are
// appended from the high end; the slot array grows from the low end.
// A deleted slot's RecordOffset is overloaded to hold the next link of
// the per-page free-slot chain, recognizable by RecordLength == -1.

const (
	pageHeaderSize = 12 // NumSlots, FreeSpacePtr, NextFreeSlot, each int32
	slotSize       = 8  // RecordOffset, RecordLength, each int32

	// MaxRecordLength is the largest record that could ever fit on a
	// freshly initialized page: insert rejects anything larger with
	// ErrPageFull before touching any page.
	MaxRecordLength = config.PageSize - pageHeaderSize - slotSize
)

// pageHeader is the metadata stored at the start of every slotted
// page.
type pageHeader struct {
	numSlots      int32
	freeSpacePtr  int32
	nextFreeSlot  int32
}

func readPageHeader(buf []byte) pageHeader {
	return pageHeader{
		numSlots:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		freeSpacePtr: int32(binary.LittleEndian.Uint32(buf[4:8])),
		nextFreeSlot: int32(binary.LittleEndian.Uint32(buf[8:12])),
	}
}

func (h pageHeader) write(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.numSlots))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.freeSpacePtr))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.nextFreeSlot))
}

// slot is a single entry in a page's slot array, immediately following
// the page header.
type slot struct {
	recordOffset int32
	recordLength int32
}

func slotOffset(slotNum int32) int {
	return pageHeaderSize + int(slotNum)*slotSize
}

func readSlot(buf []byte, slotNum int32) slot {
	off := slotOffset(slotNum)
	return slot{
		recordOffset: int32(binary.LittleEndian.Uint32(buf[off : off+4])),
		recordLength: int32(binary.LittleEndian.Uint32(buf[off+4 : off+8])),
	}
}

func (s slot) write(buf []byte, slotNum int32) {
	off := slotOffset(slotNum)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(s.recordOffset))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(s.recordLength))
}

// initPage resets buf to an empty slotted page.
func initPage(buf []byte) {
	pageHeader{numSlots: 0, freeSpacePtr: config.PageSize, nextFreeSlot: -1}.write(buf)
}

// freeSpace returns the number of bytes available for a new record
// body, not counting any slot-array growth a fresh slot would need.
func freeSpace(h pageHeader) int32 {
	return h.freeSpacePtr - (pageHeaderSize + h.numSlots*slotSize)
}

func recordBytes(buf []byte, s slot) []byte {
	return buf[s.recordOffset : s.recordOffset+s.recordLength]
}
