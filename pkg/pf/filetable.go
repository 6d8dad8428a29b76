package pf

import (
	"path/filepath"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"

	"pfheap/pkg/config"
)

// FD is the handle callers hold for an open file. It carries a
// generation token stamped at open time; every call through an FD is
// checked against the table slot's current generation, so a stale
// handle from a closed-and-reused slot fails fast with BadFD instead
// of silently operating on whatever file now occupies that slot.
type FD struct {
	slot int
	gen  uuid.UUID
}

// openFile is one file table entry: the backing block file, the
// in-memory copy of the on-disk header, the iteration cursor, the
// live/free page bitmap, and the generation token handed out to
// callers as part of their FD.
type openFile struct {
	name   string
	file   *blockFile
	gen    uuid.UUID

	numPages      int64
	firstFreePage int64
	headerDirty   bool

	cursor int64 // last page number returned by the iterator, -1 initially

	// live reports, per page number, whether the page is currently
	// live (bit set) or on the free list (bit clear). Rebuilt at open
	// by walking the on-disk free list once.
	live *bitset.BitSet
}

// fileTable is the process-wide table of open files, bound to
// config.MaxOpenFiles entries like the original system's FTAB.
type fileTable struct {
	entries   [config.MaxOpenFiles]*openFile
	byName    map[string]int
}

func newFileTable() *fileTable {
	return &fileTable{byName: make(map[string]int)}
}

func (ft *fileTable) isOpen(name string) bool {
	canon, err := filepath.Abs(name)
	if err != nil {
		canon = name
	}
	_, ok := ft.byName[canon]
	return ok
}

func (ft *fileTable) open(name string, bf *blockFile, numPages, firstFreePage int64) (FD, error) {
	canon, err := filepath.Abs(name)
	if err != nil {
		canon = name
	}
	if _, ok := ft.byName[canon]; ok {
		return FD{}, ErrFileOpen
	}
	slot := -1
	for i, e := range ft.entries {
		if e == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return FD{}, ErrFtabFull
	}

	of := &openFile{
		name:          canon,
		file:          bf,
		gen:           uuid.New(),
		numPages:      numPages,
		firstFreePage: firstFreePage,
		cursor:        NoPage,
		live:          bitset.New(uint(numPages)),
	}
	for i := int64(0); i < numPages; i++ {
		of.live.Set(uint(i))
	}

	// The entry must be installed before walking the free list: pin
	// resolves a page's backing file through the table slot, so the
	// slot has to exist first.
	ft.entries[slot] = of
	ft.byName[canon] = slot

	fid := FileID(slot)
	for p := firstFreePage; p != NoPage; {
		of.live.Clear(uint(p))
		f, _, err := pool.pin(fid, p, false)
		if err != nil {
			ft.entries[slot] = nil
			delete(ft.byName, canon)
			return FD{}, err
		}
		next := getInt64(f.data[0:8])
		if err := pool.unpin(fid, p, false); err != nil {
			ft.entries[slot] = nil
			delete(ft.byName, canon)
			return FD{}, err
		}
		p = next
	}

	return FD{slot: slot, gen: of.gen}, nil
}

func (ft *fileTable) resolve(fd FD) (*openFile, error) {
	if fd.slot < 0 || fd.slot >= len(ft.entries) {
		return nil, ErrBadFD
	}
	of := ft.entries[fd.slot]
	if of == nil || of.gen != fd.gen {
		return nil, ErrBadFD
	}
	return of, nil
}

func (ft *fileTable) close(fd FD) error {
	of, err := ft.resolve(fd)
	if err != nil {
		return err
	}
	delete(ft.byName, of.name)
	ft.entries[fd.slot] = nil
	return nil
}

// getNextLive scans forward from 'from' (exclusive) and returns the
// next page number that is currently live, or NoPage at EOF.
func (of *openFile) getNextLive(from int64) int64 {
	for p := from + 1; p < of.numPages; p++ {
		if of.live.Test(uint(p)) {
			return p
		}
	}
	return NoPage
}
