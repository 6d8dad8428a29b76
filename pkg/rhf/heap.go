// Package rhf implements a heap of variable-length records, addressed
// by stable record identifiers, on top of the pf package's slotted
// page semantics.
package rhf

import (
	"pfheap/pkg/pf"
)

// RID identifies a record by the page and slot it lives in. RIDs are
// stable across inserts/deletes on other slots; a live record is
// never relocated.
type RID struct {
	PageNum int64
	SlotNum int32
}

// FD is the handle returned by OpenFile, a thin wrapper over the
// underlying paged file's own handle.
type FD struct {
	pfd pf.FD
}

// NewFD wraps an already-open paged-file handle as a heap file
// handle, for callers that manage the underlying pf.FD themselves
// (the debug console does this to share one open file across pf_* and
// rhf_* commands).
func NewFD(fd pf.FD) FD {
	return FD{pfd: fd}
}

// CreateFile creates a new, empty heap file.
func CreateFile(name string) error {
	return pf.CreateFile(name)
}

// DestroyFile removes a heap file from disk.
func DestroyFile(name string) error {
	return pf.DestroyFile(name)
}

// OpenFile opens an existing heap file.
func OpenFile(name string) (FD, error) {
	pfd, err := pf.OpenFile(name)
	if err != nil {
		return FD{}, err
	}
	return FD{pfd: pfd}, nil
}

// CloseFile closes fd. Fails if any of the file's pages are still
// pinned by an outstanding scan or page handle.
func CloseFile(fd FD) error {
	return pf.CloseFile(fd.pfd)
}

// getPageWithSpace scans pages in file order looking for one with
// enough free space for a record of the given length, allocating and
// initializing a new page if none is found. Returns the page pinned.
func getPageWithSpace(fd FD, length int32) (*pf.Page, error) {
	page, err := pf.GetFirstPage(fd.pfd)
	for err == nil {
		h := readPageHeader(page.Data())
		slotCost := int32(0)
		if h.nextFreeSlot == -1 {
			slotCost = slotSize
		}
		if freeSpace(h) >= length+slotCost {
			return page, nil
		}
		if uerr := pf.UnfixPage(fd.pfd, page.PageNum(), false); uerr != nil {
			return nil, uerr
		}
		page, err = pf.GetNextPage(fd.pfd)
	}
	if err != pf.ErrEOF {
		return nil, err
	}

	page, err = pf.AllocPage(fd.pfd)
	if err != nil {
		return nil, err
	}
	initPage(page.Data())
	return page, nil
}

// InsertRecord appends record to the first page with room for it (or
// a freshly allocated one), returning the RID assigned to it.
func InsertRecord(fd FD, record []byte) (RID, error) {
	if int32(len(record)) > MaxRecordLength {
		return RID{}, ErrPageFull
	}

	page, err := getPageWithSpace(fd, int32(len(record)))
	if err != nil {
		return RID{}, err
	}
	buf := page.Data()
	h := readPageHeader(buf)

	var slotNum int32
	var s slot
	if h.nextFreeSlot != -1 {
		slotNum = h.nextFreeSlot
		s = readSlot(buf, slotNum)
		h.nextFreeSlot = s.recordOffset
	} else {
		slotNum = h.numSlots
		h.numSlots++
	}

	h.freeSpacePtr -= int32(len(record))
	s.recordOffset = h.freeSpacePtr
	s.recordLength = int32(len(record))
	copy(recordBytes(buf, s), record)

	h.write(buf)
	s.write(buf, slotNum)

	rid := RID{PageNum: page.PageNum(), SlotNum: slotNum}
	return rid, pf.UnfixPage(fd.pfd, page.PageNum(), true)
}

// GetRecord copies the record identified by rid into a freshly
// allocated slice and returns it.
func GetRecord(fd FD, rid RID) ([]byte, error) {
	page, err := pf.GetThisPage(fd.pfd, rid.PageNum)
	if err != nil {
		return nil, err
	}
	buf := page.Data()
	h := readPageHeader(buf)

	if rid.SlotNum < 0 || rid.SlotNum >= h.numSlots {
		pf.UnfixPage(fd.pfd, rid.PageNum, false)
		return nil, ErrInvalidRID
	}
	s := readSlot(buf, rid.SlotNum)
	if s.recordLength == -1 {
		pf.UnfixPage(fd.pfd, rid.PageNum, false)
		return nil, ErrNoRecord
	}

	record := make([]byte, s.recordLength)
	copy(record, recordBytes(buf, s))
	return record, pf.UnfixPage(fd.pfd, rid.PageNum, false)
}

// DeleteRecord tombstones the record identified by rid, pushing its
// slot onto the head of the page's free-slot chain. The record's bytes
// are not reclaimed.
func DeleteRecord(fd FD, rid RID) error {
	page, err := pf.GetThisPage(fd.pfd, rid.PageNum)
	if err != nil {
		return err
	}
	buf := page.Data()
	h := readPageHeader(buf)

	if rid.SlotNum < 0 || rid.SlotNum >= h.numSlots {
		pf.UnfixPage(fd.pfd, rid.PageNum, false)
		return ErrInvalidRID
	}
	s := readSlot(buf, rid.SlotNum)
	if s.recordLength == -1 {
		pf.UnfixPage(fd.pfd, rid.PageNum, false)
		return ErrNoRecord
	}

	s.recordOffset = h.nextFreeSlot
	s.recordLength = -1
	h.nextFreeSlot = rid.SlotNum

	h.write(buf)
	s.write(buf, rid.SlotNum)

	return pf.UnfixPage(fd.pfd, rid.PageNum, true)
}
