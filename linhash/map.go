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


// Package linhash implements the incrementally-splitting linear-hash map
// over the transactional object store contract in package store: an
// unordered key-value map whose buckets are singly-linked chains of store
// objects, keyed by a hashing key baked into the persisted root.
package linhash

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"

	"github.com/kvtrees/txmap/store"
)

// Map is the persistent linear-hash handle: a root handle plus the
// pluggable Hasher used to address buckets. The hash algorithm itself is
// not part of the persisted state (only its 16-byte key is); a caller
// must supply the same Hasher every time it reopens a given root.
type Map struct {
	hasher Hasher
	root   store.Handle
}

// CreateEmpty allocates a fresh root with two empty top-level buckets and
// a freshly generated hash key, per spec §3's initial state.
func CreateEmpty(ctx context.Context, s store.Store, hasher Hasher) (store.Handle, error) {
	if hasher == nil {
		hasher = DefaultHasher
	}
	var h store.Handle
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		var key [16]byte
		if _, err := rand.Read(key[:]); err != nil {
			return fmt.Errorf("%w: generate hash key: %v", store.ErrStore, err)
		}
		b0, err := createEmptyBucket(st)
		if err != nil {
			return err
		}
		b1, err := createEmptyBucket(st)
		if err != nil {
			return err
		}
		r := &rootState{
			size:        0,
			bucketCount: 2,
			splitIndex:  0,
			maskHigh:    3,
			maskLow:     1,
			hashKey:     key,
			buckets:     []store.Handle{b0.handle, b1.handle},
		}
		payload, err := encodeRoot(r)
		if err != nil {
			return err
		}
		created, err := st.Create(payload, r.buckets)
		if err != nil {
			return err
		}
		h = created
		return nil
	})
	if err != nil {
		return store.Handle{}, err
	}
	return h, nil
}

// FromRoot builds a Map handle over an already-existing root.
func FromRoot(hasher Hasher, h store.Handle) *Map {
	if hasher == nil {
		hasher = DefaultHasher
	}
	return &Map{hasher: hasher, root: h}
}

// RootHandle returns the map's root handle, stable across the map's
// lifetime.
func (m *Map) RootHandle() store.Handle { return m.root }

// Size returns the total number of entries in the map.
func (m *Map) Size(ctx context.Context, s store.Store) (int, error) {
	var n int
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		n = int(r.size)
		return nil
	})
	return n, err
}

func targetBucket(r *rootState, hasher Hasher, key []byte) (int, error) {
	idx := bucketIndex(hasher.Hash(r.hashKey, key), r)
	if idx < 0 || idx >= len(r.buckets) {
		return 0, fmt.Errorf("%w: bucket index %d out of range [0,%d)", store.ErrInvariantViolation, idx, len(r.buckets))
	}
	return idx, nil
}

// Find returns the value handle for key, or (zero, false, nil) if absent.
func (m *Map) Find(ctx context.Context, s store.Store, key []byte) (store.Handle, bool, error) {
	var result store.Handle
	var found bool
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		idx, err := targetBucket(r, m.hasher, key)
		if err != nil {
			return err
		}
		cur := &bucket{s: st, handle: r.buckets[idx]}
		for {
			if err := cur.load(); err != nil {
				return err
			}
			for i := 0; i < cur.slotCount(); i++ {
				if cur.occupied(i) && bytes.Equal(cur.keyAt(i), key) {
					result, found = cur.valueAt(i), true
					return nil
				}
			}
			if !cur.hasNext() {
				return nil
			}
			cur = &bucket{s: st, handle: cur.chainNext()}
		}
	})
	if err != nil {
		return store.Handle{}, false, err
	}
	return result, found, nil
}

// Put upserts key/value, per spec §4.5's Put algorithm.
func (m *Map) Put(ctx context.Context, s store.Store, key []byte, value store.Handle) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		idx, err := targetBucket(r, m.hasher, key)
		if err != nil {
			return err
		}
		added, chainDelta, err := putInChain(st, r.buckets[idx], key, value)
		if err != nil {
			return err
		}
		if added {
			r.size++
		}
		r.bucketCount = addDelta(r.bucketCount, chainDelta)
		if float64(r.size) > 0.75*float64(BucketCapacity)*float64(r.bucketCount) {
			if err := split(st, m.hasher, r); err != nil {
				return err
			}
		}
		return r.write(st, m.root)
	})
}

// putInChain walks the bucket chain rooted at handle, inserting (key,
// value). Returns whether a new entry was added (vs. an overwrite) and
// the net change in bucket count from any chain-extension buckets
// created along the way.
func putInChain(s store.Store, handle store.Handle, key []byte, value store.Handle) (added bool, chainDelta int, err error) {
	b := &bucket{s: s, handle: handle}
	if err := b.load(); err != nil {
		return false, 0, err
	}

	matched, empty := -1, -1
	for i := 0; i < b.slotCount(); i++ {
		if b.occupied(i) {
			if bytes.Equal(b.keyAt(i), key) {
				matched = i
				break
			}
		} else if empty == -1 {
			empty = i
		}
	}
	if matched >= 0 {
		b.setSlot(matched, key, value)
		return false, 0, b.write()
	}
	if empty == -1 && b.slotCount() < BucketCapacity {
		empty = b.slotCount()
	}

	if empty == -1 {
		delta := 0
		next := b.chainNext()
		if !b.hasNext() {
			nb, err := createEmptyBucket(s)
			if err != nil {
				return false, 0, err
			}
			next = nb.handle
			b.setChainNext(next)
			if err := b.write(); err != nil {
				return false, 0, err
			}
			delta++
		}
		childAdded, childDelta, err := putInChain(s, next, key, value)
		if err != nil {
			return false, 0, err
		}
		return childAdded, delta + childDelta, nil
	}

	delta := 0
	if b.hasNext() {
		removed, newNext, removeDelta, err := removeInChain(s, b.chainNext(), key)
		if err != nil {
			return false, 0, err
		}
		delta += removeDelta
		if !store.SameReferent(newNext, b.chainNext()) {
			b.setChainNext(newNext)
		}
		b.setSlot(empty, key, value)
		if err := b.write(); err != nil {
			return false, 0, err
		}
		return !removed, delta, nil
	}

	b.setSlot(empty, key, value)
	return true, delta, b.write()
}

// Remove deletes key, a no-op if key is absent.
func (m *Map) Remove(ctx context.Context, s store.Store, key []byte) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		idx, err := targetBucket(r, m.hasher, key)
		if err != nil {
			return err
		}
		done, newHead, chainDelta, err := removeInChain(st, r.buckets[idx], key)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		if !store.SameReferent(newHead, r.buckets[idx]) {
			r.buckets[idx] = newHead
		}
		r.size--
		r.bucketCount = addDelta(r.bucketCount, chainDelta)
		// Detaching an emptied chain bucket lowers bucketCount, which can
		// push utilisation back over the threshold.
		if float64(r.size) > 0.75*float64(BucketCapacity)*float64(r.bucketCount) {
			if err := split(st, m.hasher, r); err != nil {
				return err
			}
		}
		return r.write(st, m.root)
	})
}

// removeInChain walks the bucket chain rooted at handle looking for key.
// done reports whether it was found (and removed) anywhere in the chain;
// newHead is what the caller should treat as this handle's replacement
// (itself, unless this bucket emptied out and detached).
func removeInChain(s store.Store, handle store.Handle, key []byte) (done bool, newHead store.Handle, chainDelta int, err error) {
	b := &bucket{s: s, handle: handle}
	if err := b.load(); err != nil {
		return false, store.Handle{}, 0, err
	}

	slot := -1
	for i := 0; i < b.slotCount(); i++ {
		if b.occupied(i) && bytes.Equal(b.keyAt(i), key) {
			slot = i
			break
		}
	}

	if slot >= 0 {
		b.clearSlot(slot)
		b.tidyRefTail()
		if b.isEmpty() {
			if b.hasNext() {
				return true, b.chainNext(), -1, nil
			}
			// Chain-terminal bucket: nothing to detach it from, so it
			// must stay reachable from its caller's link. Write it out
			// empty instead of silently losing the store write.
			if err := b.write(); err != nil {
				return false, store.Handle{}, 0, err
			}
			return true, handle, 0, nil
		}
		return true, handle, 0, b.write()
	}

	if !b.hasNext() {
		return false, handle, 0, nil
	}
	found, newNext, delta, err := removeInChain(s, b.chainNext(), key)
	if err != nil {
		return false, store.Handle{}, 0, err
	}
	if found && !store.SameReferent(newNext, b.chainNext()) {
		b.setChainNext(newNext)
		if err := b.write(); err != nil {
			return false, store.Handle{}, 0, err
		}
	}
	return found, handle, delta, nil
}

// ForEach visits every (key, value) pair; order is unspecified beyond
// "bucket index order, then slot order within a bucket" (spec §4.5).
func (m *Map) ForEach(ctx context.Context, s store.Store, visit func(key []byte, value store.Handle) error) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		for _, head := range r.buckets {
			cur := &bucket{s: st, handle: head}
			for {
				if err := cur.load(); err != nil {
					return err
				}
				for i := 0; i < cur.slotCount(); i++ {
					if cur.occupied(i) {
						if err := visit(cur.keyAt(i), cur.valueAt(i)); err != nil {
							return err
						}
					}
				}
				if !cur.hasNext() {
					break
				}
				cur = &bucket{s: st, handle: cur.chainNext()}
			}
		}
		return nil
	})
}

// split is the central linear-hash algorithm of spec §4.5: it allocates a
// new top-level bucket, advances splitIndex (rolling the masks over when
// a full generation has split), then rehashes every key in the
// just-split-from chain under the new masks, moving entries that now
// belong elsewhere into the new bucket's own chain.
func split(s store.Store, hasher Hasher, r *rootState) error {
	sOld := r.splitIndex
	bNew, err := createEmptyBucket(s)
	if err != nil {
		return err
	}
	bNewHandle := bNew.handle
	r.buckets = append(r.buckets, bNewHandle)
	r.bucketCount++
	r.splitIndex++
	if 2*r.splitIndex == uint64(len(r.buckets)) {
		r.splitIndex = 0
		r.maskLow = r.maskHigh
		r.maskHigh = 2*r.maskHigh + 1
	}

	headHandle := r.buckets[sOld]
	var prev *bucket
	cur := &bucket{s: s, handle: headHandle}
	newHead := headHandle
	headReplaced := false

	for {
		if err := cur.load(); err != nil {
			return err
		}
		for i := 0; i < cur.slotCount(); i++ {
			if !cur.occupied(i) {
				continue
			}
			k := cur.keyAt(i)
			v := cur.valueAt(i)
			if bucketIndex(hasher.Hash(r.hashKey, k), r) == int(sOld) {
				continue
			}
			_, chainDelta, err := putInChain(s, bNewHandle, k, v)
			if err != nil {
				return err
			}
			r.bucketCount = addDelta(r.bucketCount, chainDelta)
			cur.clearSlot(i)
		}
		cur.tidyRefTail()

		next := cur.chainNext()
		hasNext := cur.hasNext()
		empty := cur.isEmpty()

		switch {
		case empty && prev == nil && !hasNext:
			if err := cur.write(); err != nil {
				return err
			}
		case empty && prev != nil && !hasNext:
			prev.setChainNext(prev.handle)
			if err := prev.write(); err != nil {
				return err
			}
			r.bucketCount--
		case empty && prev == nil && hasNext:
			newHead = next
			headReplaced = true
			r.bucketCount--
		case empty && prev != nil && hasNext:
			prev.setChainNext(next)
			if err := prev.write(); err != nil {
				return err
			}
			r.bucketCount--
		default:
			if prev != nil {
				if err := prev.write(); err != nil {
					return err
				}
			}
			prev = cur
		}

		if !hasNext {
			break
		}
		cur = &bucket{s: s, handle: next}
	}

	if prev != nil {
		if err := prev.write(); err != nil {
			return err
		}
	}

	if headReplaced {
		r.buckets[sOld] = newHead
	}
	return nil
}

func addDelta(v uint64, delta int) uint64 {
	return uint64(int64(v) + int64(delta))
}
