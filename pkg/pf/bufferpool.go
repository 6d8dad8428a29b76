package pf

import (
	"sync"

	"github.com/ncw/directio"
	"golang.org/x/sync/semaphore"

	"pfheap/pkg/config"
	"pfheap/pkg/list"
)

// pageSource is the subset of blockFile a buffer pool victim needs in
// order to fill or write back a frame.
type pageSource interface {
	ReadPage(pagenum int64, dst []byte) error
	WritePage(pagenum int64, src []byte) error
}

// bufferPool is the fixed-capacity array of page frames shared by
// every open file. Configuration (capacity, strategy) is fixed at
// construction time except for strategy, which may change between
// operations and takes effect on the next eviction.
type bufferPool struct {
	mu sync.Mutex

	frames      []Frame
	free        *list.List[*Frame]
	replacement *list.List[*Frame]
	index       *hashIndex
	tokens      *semaphore.Weighted

	strategy    config.Strategy
	resolveFile func(FileID) pageSource
}

func newBufferPool(capacity int, strategy config.Strategy, resolveFile func(FileID) pageSource) *bufferPool {
	bp := &bufferPool{
		frames:      make([]Frame, capacity),
		free:        list.NewList[*Frame](),
		replacement: list.NewList[*Frame](),
		index:       newHashIndex(capacity),
		tokens:      semaphore.NewWeighted(int64(capacity)),
		strategy:    strategy,
		resolveFile: resolveFile,
	}
	block := directio.AlignedBlock(capacity * config.PageSize)
	for i := range bp.frames {
		bp.frames[i] = Frame{
			fileID:  -1,
			pagenum: NoPage,
			data:    block[i*config.PageSize : (i+1)*config.PageSize],
		}
		bp.frames[i].link = bp.free.PushTail(&bp.frames[i])
	}
	return bp
}

func (bp *bufferPool) setStrategy(s config.Strategy) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.strategy = s
}

// pin implements Buffer Pool §4.2 "Pin". zeroFill is true for a
// freshly allocated page beyond current file length; otherwise the
// page body is read from disk on a miss.
func (bp *bufferPool) pin(fileID FileID, pagenum int64, zeroFill bool) (*Frame, bool, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	logicalReads.Add(1)

	key := frameKey{fileID, pagenum}
	if f, ok := bp.index.find(key); ok {
		if f.link != nil {
			if !bp.tokens.TryAcquire(1) {
				return nil, false, ErrNoBuffer
			}
			f.link.PopSelf()
			f.link = nil
		}
		f.pinCount++
		return f, true, nil
	}

	if !bp.tokens.TryAcquire(1) {
		return nil, false, ErrNoBuffer
	}
	f, err := bp.acquireVictim()
	if err != nil {
		bp.tokens.Release(1)
		return nil, false, err
	}

	f.fileID = fileID
	f.pagenum = pagenum
	f.pinCount = 1
	f.dirty = false

	if zeroFill {
		for i := range f.data {
			f.data[i] = 0
		}
	} else {
		source := bp.resolveFile(fileID)
		if err := source.ReadPage(pagenum, f.data); err != nil {
			f.fileID = -1
			f.pagenum = NoPage
			f.pinCount = 0
			f.link = bp.free.PushTail(f)
			bp.tokens.Release(1)
			return nil, false, err
		}
	}

	bp.index.insert(key, f)
	return f, false, nil
}

// acquireVictim returns a frame ready to be repurposed: first from the
// free-frame pool, otherwise the replacement list's eviction candidate
// per strategy, writing it back first if dirty. The caller has already
// reserved a capacity token.
func (bp *bufferPool) acquireVictim() (*Frame, error) {
	if link := bp.free.PeekHead(); link != nil {
		f := link.GetValue()
		link.PopSelf()
		f.link = nil
		return f, nil
	}

	var link *list.Link[*Frame]
	if bp.strategy == config.MRU {
		link = bp.replacement.PeekHead()
	} else {
		link = bp.replacement.PeekTail()
	}
	if link == nil {
		return nil, ErrNoBuffer
	}
	f := link.GetValue()
	link.PopSelf()
	f.link = nil

	if f.dirty {
		source := bp.resolveFile(f.fileID)
		if err := source.WritePage(f.pagenum, f.data); err != nil {
			return nil, err
		}
		f.dirty = false
	}
	bp.index.remove(f.key())
	return f, nil
}

// unpin implements Buffer Pool §4.2 "Unpin".
func (bp *bufferPool) unpin(fileID FileID, pagenum int64, dirtyHint bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, ok := bp.index.find(frameKey{fileID, pagenum})
	if !ok {
		return ErrPageNotInBuf
	}
	if f.pinCount == 0 {
		return ErrPageUnfixed
	}
	f.dirty = f.dirty || dirtyHint
	f.pinCount--
	if f.pinCount == 0 {
		f.link = bp.replacement.PushHead(f)
		bp.tokens.Release(1)
	}
	return nil
}

// markDirty implements Buffer Pool §4.2 "Mark dirty": requires the
// frame resident and pinned. The spec's described repositioning to the
// MRU end happens naturally because a pinned frame isn't on the
// replacement list at all; the mandatory unpin that follows pushes it
// to the head.
func (bp *bufferPool) markDirty(fileID FileID, pagenum int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, ok := bp.index.find(frameKey{fileID, pagenum})
	if !ok {
		return ErrPageNotInBuf
	}
	if f.pinCount == 0 {
		return ErrPageUnfixed
	}
	f.dirty = true
	return nil
}

// flushFile implements the file-scoped flush run at close: every
// resident frame owned by fileID is written back if dirty and
// returned to the free pool. Fails PageFixed if any owned frame is
// still pinned.
func (bp *bufferPool) flushFile(fileID FileID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	source := bp.resolveFile(fileID)
	for i := range bp.frames {
		f := &bp.frames[i]
		if f.fileID != fileID || f.pagenum == NoPage {
			continue
		}
		if f.pinCount > 0 {
			return ErrPageFixed
		}
		if f.dirty {
			if err := source.WritePage(f.pagenum, f.data); err != nil {
				return err
			}
			f.dirty = false
		}
		bp.index.remove(f.key())
		if f.link != nil {
			f.link.PopSelf()
		}
		f.fileID = -1
		f.pagenum = NoPage
		f.link = bp.free.PushTail(f)
	}
	return nil
}
