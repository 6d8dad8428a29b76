package pf

import "github.com/cespare/xxhash"

// hashIndex is the buffer pool's (file,page) -> frame mapping: a
// fixed-bucket-count chaining hash table keyed by an xxhash digest of
// the key bytes, distinct from the replacement list that orders the
// same frames by recency.
type hashIndex struct {
	buckets []*hashEntry
	count   int
}

type hashEntry struct {
	key   frameKey
	frame *Frame
	next  *hashEntry
}

func newHashIndex(capacity int) *hashIndex {
	n := 8
	for n < capacity*2 {
		n <<= 1
	}
	return &hashIndex{buckets: make([]*hashEntry, n)}
}

func (k frameKey) digest() uint64 {
	var buf [12]byte
	putUint32(buf[0:4], uint32(k.file))
	putInt64(buf[4:12], k.page)
	return xxhash.Sum64(buf[:])
}

func (h *hashIndex) slot(k frameKey) int {
	return int(k.digest() & uint64(len(h.buckets)-1))
}

func (h *hashIndex) find(k frameKey) (*Frame, bool) {
	for e := h.buckets[h.slot(k)]; e != nil; e = e.next {
		if e.key == k {
			return e.frame, true
		}
	}
	return nil, false
}

// insert adds k->f. Callers are responsible for not inserting a key
// that is already present (I3: the hash index and frame array agree
// on every resident page; no stale or duplicate entries).
func (h *hashIndex) insert(k frameKey, f *Frame) {
	s := h.slot(k)
	h.buckets[s] = &hashEntry{key: k, frame: f, next: h.buckets[s]}
	h.count++
}

func (h *hashIndex) remove(k frameKey) {
	s := h.slot(k)
	var prev *hashEntry
	for e := h.buckets[s]; e != nil; e = e.next {
		if e.key == k {
			if prev == nil {
				h.buckets[s] = e.next
			} else {
				prev.next = e.next
			}
			h.count--
			return
		}
		prev = e
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
