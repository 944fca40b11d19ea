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
	"context"
	"fmt"

	"github.com/kvtrees/txmap/store"
)

// CheckInvariants walks the whole map and returns a non-nil error
// wrapping store.ErrInvariantViolation on the first violation of spec
// §4.5/§8's structural invariants: bucket capacity, no duplicate key
// within a chain, the recorded size matching the actual entry count, and
// post-split utilisation. It exists for tests, not production code paths.
func CheckInvariants(ctx context.Context, s store.Store, m *Map) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		r, err := loadRoot(st, m.root)
		if err != nil {
			return err
		}
		if uint64(len(r.buckets)) > r.bucketCount {
			return fmt.Errorf("%w: %d top-level buckets exceeds bucketCount=%d", store.ErrInvariantViolation, len(r.buckets), r.bucketCount)
		}

		var total int
		for idx, head := range r.buckets {
			seen := make(map[string]bool)
			cur := &bucket{s: st, handle: head}
			for {
				if err := cur.load(); err != nil {
					return err
				}
				if cur.slotCount() > BucketCapacity {
					return fmt.Errorf("%w: bucket has %d slots, want <= %d", store.ErrInvariantViolation, cur.slotCount(), BucketCapacity)
				}
				for i := 0; i < cur.slotCount(); i++ {
					if !cur.occupied(i) {
						continue
					}
					k := cur.keyAt(i)
					if seen[string(k)] {
						return fmt.Errorf("%w: duplicate key in bucket chain at index %d", store.ErrInvariantViolation, idx)
					}
					seen[string(k)] = true
					wantIdx, err := targetBucket(r, m.hasher, k)
					if err != nil {
						return err
					}
					if wantIdx != idx {
						return fmt.Errorf("%w: key addresses bucket %d but found in chain %d", store.ErrInvariantViolation, wantIdx, idx)
					}
					total++
				}
				if !cur.hasNext() {
					break
				}
				cur = &bucket{s: st, handle: cur.chainNext()}
			}
		}
		if uint64(total) != r.size {
			return fmt.Errorf("%w: root size=%d but counted %d entries", store.ErrInvariantViolation, r.size, total)
		}
		if float64(r.size) > 0.75*float64(BucketCapacity)*float64(r.bucketCount) {
			return fmt.Errorf("%w: utilisation %.3f exceeds 0.75", store.ErrInvariantViolation, float64(r.size)/(float64(BucketCapacity)*float64(r.bucketCount)))
		}
		return nil
	})
}
