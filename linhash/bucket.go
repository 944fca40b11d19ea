// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>


package linhash

import (
	"github.com/kvtrees/txmap/store"
)

// BucketCapacity is the fixed per-bucket slot count C of spec §3.
const BucketCapacity = 64

// bucket is a single linear-hash bucket: a store object whose payload
// holds up to BucketCapacity keys and whose ref list is the chain-next
// pointer (refs[0]) followed by one value handle per key (refs[1:]).
// Slot i is empty iff i is past the ref tail or refs[i+1] is a
// self-reference — the tombstone convention of spec §3/§9.
type bucket struct {
	s      store.Store
	handle store.Handle
	loaded bool
	entries [][]byte
	refs    []store.Handle
}

func (b *bucket) load() error {
	if b.loaded {
		return nil
	}
	payload, refs, err := b.s.Read(b.handle)
	if err != nil {
		return err
	}
	entries, err := decodeBucketEntries(payload)
	if err != nil {
		return err
	}
	b.entries = entries
	b.refs = refs
	b.loaded = true
	return nil
}

// createEmptyBucket allocates a fresh bucket whose chain-next is itself
// (no next, no entries). The handle is only known after Create, so the
// self-reference is fixed up with an immediate Write.
func createEmptyBucket(s store.Store) (*bucket, error) {
	payload, err := encodeBucketEntries(nil)
	if err != nil {
		return nil, err
	}
	h, err := s.Create(payload, []store.Handle{{}})
	if err != nil {
		return nil, err
	}
	refs := []store.Handle{h}
	if err := s.Write(h, payload, refs); err != nil {
		return nil, err
	}
	return &bucket{s: s, handle: h, entries: nil, refs: refs, loaded: true}, nil
}

func (b *bucket) slotCount() int { return len(b.entries) }

func (b *bucket) occupied(i int) bool {
	return i < len(b.entries) && len(b.entries[i]) > 0 && !store.SameReferent(b.refs[i+1], b.handle)
}

func (b *bucket) keyAt(i int) []byte          { return b.entries[i] }
func (b *bucket) valueAt(i int) store.Handle  { return b.refs[i+1] }

func (b *bucket) setSlot(i int, key []byte, value store.Handle) {
	for len(b.entries) <= i {
		b.entries = append(b.entries, nil)
		b.refs = append(b.refs, b.handle)
	}
	b.entries[i] = key
	b.refs[i+1] = value
}

func (b *bucket) clearSlot(i int) {
	b.entries[i] = nil
	b.refs[i+1] = b.handle
}

// tidyRefTail trims trailing empty slots from the tail of entries/refs,
// per spec §3/§4.5. refs[0] (the chain pointer) is never trimmed.
func (b *bucket) tidyRefTail() {
	for len(b.entries) > 0 && !b.occupied(len(b.entries)-1) {
		b.entries = b.entries[:len(b.entries)-1]
		b.refs = b.refs[:len(b.refs)-1]
	}
}

func (b *bucket) isEmpty() bool { return len(b.refs) == 1 }

func (b *bucket) hasNext() bool { return !store.SameReferent(b.refs[0], b.handle) }
func (b *bucket) chainNext() store.Handle { return b.refs[0] }
func (b *bucket) setChainNext(h store.Handle) { b.refs[0] = h }

func (b *bucket) write() error {
	payload, err := encodeBucketEntries(b.entries)
	if err != nil {
		return err
	}
	return b.s.Write(b.handle, payload, b.refs)
}
