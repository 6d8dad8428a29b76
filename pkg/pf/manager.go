// Package pf implements the Paged File layer: a disciplined,
// fixed-size page store on top of a raw file, with a bounded buffer
// pool, configurable LRU/MRU replacement, and a per-file free-page
// list threaded through disposed pages' bodies.
//
// The buffer pool, hash index, file table, and statistics counters are
// process-wide singletons, matching the original system's shape:
// configuration (buffer size, strategy) must be set before the first
// file is opened; Init allocates frames and resets counters.
package pf

import (
	"sync"

	"pfheap/pkg/config"
)

var (
	mgrMu       sync.Mutex
	pool        *bufferPool
	table       *fileTable
	bufferSize  = config.DefaultBufferSize
	strategy    = config.DefaultStrategy
	initialized bool
)

// Init allocates the buffer pool's frames and resets the I/O counters.
// Calling Init more than once without an intervening Reset is a no-op.
func Init() {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	initLocked()
}

func initLocked() {
	if initialized {
		return
	}
	table = newFileTable()
	pool = newBufferPool(bufferSize, strategy, func(id FileID) pageSource {
		return table.entries[id].file
	})
	initialized = true
	ResetStats()
}

// SetBufferSize sets the number of frames the buffer pool will hold.
// Must be called before the first file is opened; once Init has run,
// capacity is fixed and further calls are ignored.
func SetBufferSize(n int) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	if initialized {
		return
	}
	bufferSize = n
}

// SetStrategy sets the global page replacement strategy. Unlike
// capacity, this may be changed at any time; it takes effect on the
// next eviction.
func SetStrategy(s config.Strategy) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	strategy = s
	if pool != nil {
		pool.setStrategy(s)
	}
}

// Reset tears down all process-wide state. Intended for use between
// test cases; the original system has no equivalent since a test
// process always starts fresh.
func Reset() {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	pool = nil
	table = nil
	initialized = false
	bufferSize = config.DefaultBufferSize
	strategy = config.DefaultStrategy
	ResetStats()
}

// CreateFile creates a new, empty paged file on disk.
func CreateFile(name string) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	return createFile(name)
}

// DestroyFile removes a paged file from disk. Fails with ErrFileOpen
// if the file is currently open.
func DestroyFile(name string) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	isOpen := func(string) bool { return false }
	if table != nil {
		isOpen = table.isOpen
	}
	return destroyFile(name, isOpen)
}

// OpenFile opens an existing paged file, reading its header into the
// file table.
func OpenFile(name string) (FD, error) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	initLocked()

	bf, err := openBlockFile(name)
	if err != nil {
		return FD{}, err
	}
	numPages, firstFree, err := bf.ReadHeader()
	if err != nil {
		bf.Close()
		return FD{}, err
	}
	fd, err := table.open(name, bf, numPages, firstFree)
	if err != nil {
		bf.Close()
		return FD{}, err
	}
	return fd, nil
}

// CloseFile flushes every frame owned by fd, writes back the header if
// it changed, and releases the file table entry. Fails with
// ErrPageFixed if any of the file's pages are still pinned.
func CloseFile(fd FD) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	of, err := table.resolve(fd)
	if err != nil {
		return err
	}
	if err := pool.flushFile(FileID(fd.slot)); err != nil {
		return err
	}
	if of.headerDirty {
		if err := of.file.WriteHeader(of.numPages, of.firstFreePage); err != nil {
			return err
		}
		of.headerDirty = false
	}
	if err := of.file.Close(); err != nil {
		return err
	}
	return table.close(fd)
}

// GetThisPage pins and returns the page at index n.
func GetThisPage(fd FD, n int64) (*Page, error) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	of, err := table.resolve(fd)
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= of.numPages {
		return nil, ErrInvalidPage
	}
	f, _, err := pool.pin(FileID(fd.slot), n, false)
	if err != nil {
		return nil, err
	}
	return &Page{frame: f}, nil
}

// GetFirstPage resets the file's iteration cursor and returns the
// first live page, or ErrEOF if the file has no live pages.
func GetFirstPage(fd FD) (*Page, error) {
	mgrMu.Lock()
	of, err := table.resolve(fd)
	if err != nil {
		mgrMu.Unlock()
		return nil, err
	}
	of.cursor = NoPage
	mgrMu.Unlock()
	return GetNextPage(fd)
}

// GetNextPage advances the file's iteration cursor to the next live
// page at or beyond cursor+1, pinning and returning it, or ErrEOF past
// the last page.
func GetNextPage(fd FD) (*Page, error) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	of, err := table.resolve(fd)
	if err != nil {
		return nil, err
	}
	next := of.getNextLive(of.cursor)
	if next == NoPage {
		return nil, ErrEOF
	}
	of.cursor = next
	f, _, err := pool.pin(FileID(fd.slot), next, false)
	if err != nil {
		return nil, err
	}
	return &Page{frame: f}, nil
}

// AllocPage returns a new, zero-filled, pinned page: reused from the
// head of the free-page list if one is available, otherwise appended
// past the current end of the file.
func AllocPage(fd FD) (*Page, error) {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	of, err := table.resolve(fd)
	if err != nil {
		return nil, err
	}

	if of.firstFreePage != NoPage {
		n := of.firstFreePage
		f, _, err := pool.pin(FileID(fd.slot), n, false)
		if err != nil {
			return nil, err
		}
		of.firstFreePage = getInt64(f.data[0:8])
		of.headerDirty = true
		of.live.Set(uint(n))
		for i := range f.data {
			f.data[i] = 0
		}
		f.dirty = true
		return &Page{frame: f}, nil
	}

	n := of.numPages
	f, _, err := pool.pin(FileID(fd.slot), n, true)
	if err != nil {
		return nil, err
	}
	of.numPages++
	of.headerDirty = true
	of.live.Set(uint(n))
	f.dirty = true
	return &Page{frame: f}, nil
}

// DisposePage pushes page n onto the head of the file's free-page
// list. Fails with ErrPageFixed if n is currently pinned by anything
// other than this call's own transient pin, and ErrPageFree if n is
// already on the free list.
func DisposePage(fd FD, n int64) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	of, err := table.resolve(fd)
	if err != nil {
		return err
	}
	if n < 0 || n >= of.numPages {
		return ErrInvalidPage
	}
	if !of.live.Test(uint(n)) {
		return ErrPageFree
	}

	f, _, err := pool.pin(FileID(fd.slot), n, false)
	if err != nil {
		return err
	}
	if f.pinCount > 1 {
		pool.unpin(FileID(fd.slot), n, false)
		return ErrPageFixed
	}

	putInt64(f.data[0:8], of.firstFreePage)
	of.firstFreePage = n
	of.live.Clear(uint(n))
	of.headerDirty = true
	f.dirty = true
	return pool.unpin(FileID(fd.slot), n, true)
}

// UnfixPage releases one pin on page n, ORing dirty into the frame's
// dirty flag.
func UnfixPage(fd FD, n int64, dirty bool) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	if _, err := table.resolve(fd); err != nil {
		return err
	}
	return pool.unpin(FileID(fd.slot), n, dirty)
}

// MarkDirty sets the dirty flag on a resident, pinned page.
func MarkDirty(fd FD, n int64) error {
	mgrMu.Lock()
	defer mgrMu.Unlock()
	if _, err := table.resolve(fd); err != nil {
		return err
	}
	return pool.markDirty(FileID(fd.slot), n)
}
