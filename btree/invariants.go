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


package btree

import (
	"context"
	"fmt"

	"github.com/kvtrees/txmap/store"
)

// CheckInvariants walks the whole tree and returns a non-nil error
// wrapping store.ErrInvariantViolation on the first violation of spec
// §4.3's structural invariants: key/value/child cardinality, node-size
// bounds (root exempted), key ordering, key-range containment per child,
// and equal leaf depth. It exists for tests, not production code paths.
func CheckInvariants(ctx context.Context, s store.Store, t *BTree) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		var root Node = newStoreNode(st, t.root, t.cmp)
		_, err := checkNode(root, t.order, t.cmp, true, nil, nil)
		return err
	})
}

func checkNode(n Node, order int, cmp Comparator, isRoot bool, lower, upper []byte) (depth int, err error) {
	keys, err := n.Keys()
	if err != nil {
		return 0, err
	}
	values, err := n.Values()
	if err != nil {
		return 0, err
	}
	children, err := n.Children()
	if err != nil {
		return 0, err
	}
	leaf := children.Size() == 0

	if values.Size() != keys.Size() {
		return 0, fmt.Errorf("%w: |values|=%d != |keys|=%d", store.ErrInvariantViolation, values.Size(), keys.Size())
	}
	if !leaf && children.Size() != keys.Size()+1 {
		return 0, fmt.Errorf("%w: internal node has %d children for %d keys", store.ErrInvariantViolation, children.Size(), keys.Size())
	}

	if !isRoot {
		if leaf {
			if keys.Size() < minLeafKeys(order) || keys.Size() > maxLeafKeys(order) {
				return 0, fmt.Errorf("%w: leaf has %d keys, want [%d,%d]", store.ErrInvariantViolation, keys.Size(), minLeafKeys(order), maxLeafKeys(order))
			}
		} else {
			if children.Size() < minNonLeafChildren(order) || children.Size() > maxNonLeafChildren(order) {
				return 0, fmt.Errorf("%w: internal node has %d children, want [%d,%d]", store.ErrInvariantViolation, children.Size(), minNonLeafChildren(order), maxNonLeafChildren(order))
			}
		}
	} else if leaf && keys.Size() > maxLeafKeys(order) {
		return 0, fmt.Errorf("%w: root leaf has %d keys, want <= %d", store.ErrInvariantViolation, keys.Size(), maxLeafKeys(order))
	} else if !leaf && children.Size() > maxNonLeafChildren(order) {
		return 0, fmt.Errorf("%w: root has %d children, want <= %d", store.ErrInvariantViolation, children.Size(), maxNonLeafChildren(order))
	}

	var prev []byte
	for i := 0; i < keys.Size(); i++ {
		k, err := keys.Get(i)
		if err != nil {
			return 0, err
		}
		if prev != nil && cmp(prev, k) >= 0 {
			return 0, fmt.Errorf("%w: keys out of order at index %d", store.ErrInvariantViolation, i)
		}
		if lower != nil && cmp(lower, k) >= 0 {
			return 0, fmt.Errorf("%w: key below subtree lower bound", store.ErrInvariantViolation)
		}
		if upper != nil && cmp(k, upper) >= 0 {
			return 0, fmt.Errorf("%w: key above subtree upper bound", store.ErrInvariantViolation)
		}
		prev = k
	}

	if leaf {
		return 0, nil
	}

	childDepth := -1
	for i := 0; i < children.Size(); i++ {
		var lo, hi []byte
		if i > 0 {
			lo, err = keys.Get(i - 1)
			if err != nil {
				return 0, err
			}
		} else {
			lo = lower
		}
		if i < keys.Size() {
			hi, err = keys.Get(i)
			if err != nil {
				return 0, err
			}
		} else {
			hi = upper
		}
		c, err := children.Get(i)
		if err != nil {
			return 0, err
		}
		d, err := checkNode(c, order, cmp, false, lo, hi)
		if err != nil {
			return 0, err
		}
		if childDepth == -1 {
			childDepth = d
		} else if d != childDepth {
			return 0, fmt.Errorf("%w: leaves at unequal depth", store.ErrInvariantViolation)
		}
	}
	return childDepth + 1, nil
}
