package pf

import "pfheap/pkg/list"

// NoPage marks a frame not currently holding any page, or a
// newly-created open-file entry with no previous page visited.
const NoPage int64 = -1

// FileID identifies an open file within the buffer pool and hash
// index. It is the file table's slot index.
type FileID int

// frameKey is the buffer pool hash index's key type.
type frameKey struct {
	file FileID
	page int64
}

// Frame is one slot of the buffer pool's fixed-capacity frame array:
// owning file, page number, pin count, dirty flag, and the page
// buffer. pin_count > 0 implies the frame is off both the free pool
// and the replacement list; pin_count == 0 implies it is on exactly
// one of them.
type Frame struct {
	fileID   FileID
	pagenum  int64
	pinCount int
	dirty    bool
	data     []byte

	// link tracks this frame's membership in the free pool or the
	// replacement list. nil while the frame is pinned.
	link *list.Link[*Frame]
}

func (f *Frame) key() frameKey {
	return frameKey{f.fileID, f.pagenum}
}

// Page is the live handle a caller receives from pin/alloc. It stays
// valid until the matching unfix call.
type Page struct {
	frame *Frame
}

// PageNum returns the page number this handle addresses.
func (p *Page) PageNum() int64 {
	return p.frame.pagenum
}

// Data returns the page's byte buffer. Mutations are visible to other
// holders of the same page and are written back on eviction or close
// only if the page was marked dirty.
func (p *Page) Data() []byte {
	return p.frame.data
}
