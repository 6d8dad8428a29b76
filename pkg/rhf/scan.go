package rhf

import "pfheap/pkg/pf"

// Scan owns at most one pinned page between calls to Next.
type Scan struct {
	fd          FD
	started     bool
	page        *pf.Page
	currentSlot int32
}

// StartScan begins a sequential scan of fd from its first page.
func StartScan(fd FD) *Scan {
	return &Scan{fd: fd}
}

// Next returns the next live record in file order, or ErrEOF once the
// scan is exhausted. The slot cursor is advanced before returning, so
// the following call resumes past the record just returned.
func (s *Scan) Next() ([]byte, RID, error) {
	for {
		if s.page == nil {
			var page *pf.Page
			var err error
			if !s.started {
				page, err = pf.GetFirstPage(s.fd.pfd)
				s.started = true
			} else {
				page, err = pf.GetNextPage(s.fd.pfd)
			}
			if err != nil {
				if err == pf.ErrEOF {
					return nil, RID{}, ErrEOF
				}
				return nil, RID{}, err
			}
			s.page = page
			s.currentSlot = 0
		}

		buf := s.page.Data()
		h := readPageHeader(buf)

		if s.currentSlot >= h.numSlots {
			pagenum := s.page.PageNum()
			s.page = nil
			if err := pf.UnfixPage(s.fd.pfd, pagenum, false); err != nil {
				return nil, RID{}, err
			}
			continue
		}

		slotNum := s.currentSlot
		sl := readSlot(buf, slotNum)
		s.currentSlot++

		if sl.recordLength == -1 {
			continue
		}

		record := make([]byte, sl.recordLength)
		copy(record, recordBytes(buf, sl))
		rid := RID{PageNum: s.page.PageNum(), SlotNum: slotNum}
		return record, rid, nil
	}
}

// End releases any page still held by the scan. Safe to call if none
// is held, and safe to call more than once.
func (s *Scan) End() error {
	if s.page == nil {
		return nil
	}
	pagenum := s.page.PageNum()
	s.page = nil
	return pf.UnfixPage(s.fd.pfd, pagenum, false)
}
