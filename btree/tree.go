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

	"github.com/kvtrees/txmap/seq"
	"github.com/kvtrees/txmap/store"
)

// BTree is the persistent, order-parameterised B-tree of spec §3/§4.3: a
// root handle, an order and a comparator. Every public method runs its
// body as a store.RunTx closure, so a restart re-drives the whole
// operation against fresh reads, per spec §5.
type BTree struct {
	order int
	cmp   Comparator
	root  store.Handle
}

func minNonLeafChildren(order int) int { return (order + 1) / 2 } // ceil(order/2)
func maxNonLeafChildren(order int) int { return order }
func minLeafKeys(order int) int        { return minNonLeafChildren(order) - 1 }
func maxLeafKeys(order int) int        { return order - 1 }

// CreateEmpty allocates a fresh, empty root node (a leaf with no keys) and
// returns its handle.
func CreateEmpty(ctx context.Context, s store.Store, order int, cmp Comparator) (store.Handle, error) {
	if order < 3 {
		return store.Handle{}, fmt.Errorf("%w: order must be >= 3, got %d", store.ErrInvariantViolation, order)
	}
	if cmp == nil {
		cmp = DefaultComparator
	}
	var h store.Handle
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		payload, err := encodeNodeKeys(nil)
		if err != nil {
			return err
		}
		created, err := st.Create(payload, nil)
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

// FromRoot builds a BTree handle over an already-existing root. The order
// is a runtime parameter of the handle only: it is neither stored in nor
// read from the root payload.
func FromRoot(order int, cmp Comparator, h store.Handle) *BTree {
	if cmp == nil {
		cmp = DefaultComparator
	}
	return &BTree{order: order, cmp: cmp, root: h}
}

// RootHandle returns the tree's root handle. It never changes across the
// tree's lifetime, even as the tree grows (spec §4.3's root identity
// preservation).
func (t *BTree) RootHandle() store.Handle { return t.root }

// Size returns the total number of keys in the tree.
func (t *BTree) Size(ctx context.Context, s store.Store) (int, error) {
	var total int
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		n, err := sizeOf(newStoreNode(st, t.root, t.cmp))
		total = n
		return err
	})
	return total, err
}

func sizeOf(n Node) (int, error) {
	keys, err := n.Keys()
	if err != nil {
		return 0, err
	}
	total := keys.Size()
	children, err := n.Children()
	if err != nil {
		return 0, err
	}
	for i := 0; i < children.Size(); i++ {
		c, err := children.Get(i)
		if err != nil {
			return 0, err
		}
		cs, err := sizeOf(c)
		if err != nil {
			return 0, err
		}
		total += cs
	}
	return total, nil
}

// Find returns the value handle for key, or (zero, false, nil) if absent.
// find never returns an error for a missing key (spec §7: NotFound is
// never an error).
func (t *BTree) Find(ctx context.Context, s store.Store, key []byte) (store.Handle, bool, error) {
	var result store.Handle
	var found bool
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		var node Node = newStoreNode(st, t.root, t.cmp)
		for {
			keys, err := node.Keys()
			if err != nil {
				return err
			}
			i, exact, err := probe(keys, key, t.cmp)
			if err != nil {
				return err
			}
			if exact {
				values, err := node.Values()
				if err != nil {
					return err
				}
				v, err := values.Get(i)
				if err != nil {
					return err
				}
				result, found = v, true
				return nil
			}
			leaf, err := node.IsLeaf()
			if err != nil {
				return err
			}
			if leaf {
				found = false
				return nil
			}
			children, err := node.Children()
			if err != nil {
				return err
			}
			node, err = children.Get(i)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return store.Handle{}, false, err
	}
	return result, found, nil
}

// Put upserts key/value. Whether it inserted or replaced is not externally
// observable, per spec §4.3.
func (t *BTree) Put(ctx context.Context, s store.Store, key []byte, value store.Handle) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		var root Node = newStoreNode(st, t.root, t.cmp)
		sr, err := insertRecursive(root, key, value, t.cmp, t.order)
		if err != nil {
			return err
		}
		if sr == nil {
			return nil
		}
		// The root just split: it currently holds the right half of the
		// split content (already written in place by insertRecursive).
		// Clone that content into a fresh handle so the root's own handle
		// can be repurposed as the new top spine, keeping the externally
		// visible root identity stable (spec §4.3, §9).
		curKeys, err := root.Keys()
		if err != nil {
			return err
		}
		curValues, err := root.Values()
		if err != nil {
			return err
		}
		curChildren, err := root.Children()
		if err != nil {
			return err
		}
		clonedOldRoot, err := root.CreateSibling(curKeys, curValues, curChildren)
		if err != nil {
			return err
		}
		newKeys := seq.Wrap([][]byte{sr.key})
		newValues := seq.Wrap([]store.Handle{sr.value})
		newChildren := seq.Wrap([]Node{sr.left, clonedOldRoot})
		return root.Update(newKeys, newValues, newChildren)
	})
}

// splitResult is what a node propagates to its parent when it overflows:
// a promoted separator and the new left sibling created to hold the left
// half of the split.
type splitResult struct {
	key   []byte
	value store.Handle
	left  Node
}

func insertRecursive(node Node, key []byte, value store.Handle, cmp Comparator, order int) (*splitResult, error) {
	keys, err := node.Keys()
	if err != nil {
		return nil, err
	}
	values, err := node.Values()
	if err != nil {
		return nil, err
	}
	children, err := node.Children()
	if err != nil {
		return nil, err
	}
	leaf := children.Size() == 0

	i, exact, err := probe(keys, key, cmp)
	if err != nil {
		return nil, err
	}

	if exact {
		newValues := values.With(i, value)
		return nil, node.Update(keys, newValues, children)
	}

	if leaf {
		newKeys := keys.SpliceIn(i, key)
		newValues := values.SpliceIn(i, value)
		if newKeys.Size() > maxLeafKeys(order) {
			return splitLeaf(node, newKeys, newValues, order)
		}
		return nil, node.Update(newKeys, newValues, children)
	}

	child, err := children.Get(i)
	if err != nil {
		return nil, err
	}
	sr, err := insertRecursive(child, key, value, cmp, order)
	if err != nil || sr == nil {
		return nil, err
	}

	newKeys := keys.SpliceIn(i, sr.key)
	newValues := values.SpliceIn(i, sr.value)
	newChildren := children.SpliceIn(i, sr.left)
	if newChildren.Size() > maxNonLeafChildren(order) {
		return splitInternal(node, newKeys, newValues, newChildren, order)
	}
	return nil, node.Update(newKeys, newValues, newChildren)
}

func splitLeaf(node Node, keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], order int) (*splitResult, error) {
	median := minLeafKeys(order)
	left, err := node.CreateSibling(keys.Slice(0, median), values.Slice(0, median), seq.Empty[Node]())
	if err != nil {
		return nil, err
	}
	promotedKey, err := keys.Get(median)
	if err != nil {
		return nil, err
	}
	promotedValue, err := values.Get(median)
	if err != nil {
		return nil, err
	}
	rightKeys := keys.Slice(median+1, keys.Size())
	rightValues := values.Slice(median+1, values.Size())
	if err := node.Update(rightKeys, rightValues, seq.Empty[Node]()); err != nil {
		return nil, err
	}
	return &splitResult{key: promotedKey, value: promotedValue, left: left}, nil
}

func splitInternal(node Node, keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node], order int) (*splitResult, error) {
	median := minNonLeafChildren(order) - 1
	left, err := node.CreateSibling(keys.Slice(0, median), values.Slice(0, median), children.Slice(0, median+1))
	if err != nil {
		return nil, err
	}
	promotedKey, err := keys.Get(median)
	if err != nil {
		return nil, err
	}
	promotedValue, err := values.Get(median)
	if err != nil {
		return nil, err
	}
	rightKeys := keys.Slice(median+1, keys.Size())
	rightValues := values.Slice(median+1, values.Size())
	rightChildren := children.Slice(median+1, children.Size())
	if err := node.Update(rightKeys, rightValues, rightChildren); err != nil {
		return nil, err
	}
	return &splitResult{key: promotedKey, value: promotedValue, left: left}, nil
}

// Remove deletes key, a no-op if key is absent.
func (t *BTree) Remove(ctx context.Context, s store.Store, key []byte) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		var root Node = newStoreNode(st, t.root, t.cmp)
		_, found, err := deleteRecursive(root, key, t.cmp, t.order)
		if err != nil || !found {
			return err
		}
		leaf, err := root.IsLeaf()
		if err != nil {
			return err
		}
		if leaf {
			return nil
		}
		children, err := root.Children()
		if err != nil {
			return err
		}
		if children.Size() != 1 {
			return nil
		}
		// Root collapse: an internal root with exactly one child adopts
		// that child's content (spec §4.3).
		child, err := children.Get(0)
		if err != nil {
			return err
		}
		cKeys, err := child.Keys()
		if err != nil {
			return err
		}
		cValues, err := child.Values()
		if err != nil {
			return err
		}
		cChildren, err := child.Children()
		if err != nil {
			return err
		}
		return root.Update(cKeys, cValues, cChildren)
	})
}

func deleteRecursive(node Node, key []byte, cmp Comparator, order int) (underflow bool, found bool, err error) {
	keys, err := node.Keys()
	if err != nil {
		return false, false, err
	}
	values, err := node.Values()
	if err != nil {
		return false, false, err
	}
	children, err := node.Children()
	if err != nil {
		return false, false, err
	}
	leaf := children.Size() == 0

	i, exact, err := probe(keys, key, cmp)
	if err != nil {
		return false, false, err
	}

	if leaf {
		if !exact {
			return false, false, nil
		}
		newKeys := keys.SpliceOut(i)
		newValues := values.SpliceOut(i)
		if err := node.Update(newKeys, newValues, children); err != nil {
			return false, false, err
		}
		return newKeys.Size() < minLeafKeys(order), true, nil
	}

	if exact {
		child, err := children.Get(i)
		if err != nil {
			return false, false, err
		}
		predKey, predValue, childUnderflow, err := pop(child, order)
		if err != nil {
			return false, false, err
		}
		newKeys := keys.With(i, predKey)
		newValues := values.With(i, predValue)
		if err := node.Update(newKeys, newValues, children); err != nil {
			return false, false, err
		}
		if !childUnderflow {
			return false, true, nil
		}
		u, err := rebalanceChild(node, i, order)
		return u, true, err
	}

	child, err := children.Get(i)
	if err != nil {
		return false, false, err
	}
	childUnderflow, found, err := deleteRecursive(child, key, cmp, order)
	if err != nil || !found {
		return false, found, err
	}
	if !childUnderflow {
		return false, true, nil
	}
	u, err := rebalanceChild(node, i, order)
	return u, true, err
}

// pop removes and returns the largest key/value in node's subtree,
// bubbling any underflow up inside the subtree before returning (spec
// §4.3's "predecessor via pop(left)").
func pop(node Node, order int) ([]byte, store.Handle, bool, error) {
	keys, err := node.Keys()
	if err != nil {
		return nil, store.Handle{}, false, err
	}
	values, err := node.Values()
	if err != nil {
		return nil, store.Handle{}, false, err
	}
	children, err := node.Children()
	if err != nil {
		return nil, store.Handle{}, false, err
	}

	if children.Size() == 0 {
		last := keys.Size() - 1
		k, err := keys.Get(last)
		if err != nil {
			return nil, store.Handle{}, false, err
		}
		v, err := values.Get(last)
		if err != nil {
			return nil, store.Handle{}, false, err
		}
		newKeys := keys.SpliceOut(last)
		newValues := values.SpliceOut(last)
		if err := node.Update(newKeys, newValues, children); err != nil {
			return nil, store.Handle{}, false, err
		}
		return k, v, newKeys.Size() < minLeafKeys(order), nil
	}

	lastChildIdx := children.Size() - 1
	child, err := children.Get(lastChildIdx)
	if err != nil {
		return nil, store.Handle{}, false, err
	}
	k, v, childUnderflow, err := pop(child, order)
	if err != nil {
		return nil, store.Handle{}, false, err
	}
	if !childUnderflow {
		return k, v, false, nil
	}
	u, err := rebalanceChild(node, lastChildIdx, order)
	return k, v, u, err
}

// rebalanceChild restores the minimum-size invariant for parent's child at
// index i, which has just underflowed: rotate from a spare sibling if one
// exists, else merge with whichever sibling exists. Returns whether parent
// itself now underflows.
func rebalanceChild(parent Node, i, order int) (bool, error) {
	keys, err := parent.Keys()
	if err != nil {
		return false, err
	}
	values, err := parent.Values()
	if err != nil {
		return false, err
	}
	children, err := parent.Children()
	if err != nil {
		return false, err
	}
	child, err := children.Get(i)
	if err != nil {
		return false, err
	}
	childLeaf, err := child.IsLeaf()
	if err != nil {
		return false, err
	}

	hasLeft := i > 0
	hasRight := i < children.Size()-1

	if hasLeft {
		left, err := children.Get(i - 1)
		if err != nil {
			return false, err
		}
		spare, err := hasSpare(left, childLeaf, order)
		if err != nil {
			return false, err
		}
		if spare {
			return false, rotateClockwise(parent, keys, values, children, i-1, childLeaf)
		}
	}
	if hasRight {
		right, err := children.Get(i + 1)
		if err != nil {
			return false, err
		}
		spare, err := hasSpare(right, childLeaf, order)
		if err != nil {
			return false, err
		}
		if spare {
			return false, rotateCounterClockwise(parent, keys, values, children, i, childLeaf)
		}
	}
	if hasLeft {
		return mergeChildren(parent, keys, values, children, i-1, order)
	}
	return mergeChildren(parent, keys, values, children, i, order)
}

func hasSpare(node Node, leaf bool, order int) (bool, error) {
	if leaf {
		keys, err := node.Keys()
		if err != nil {
			return false, err
		}
		return keys.Size() > minLeafKeys(order), nil
	}
	children, err := node.Children()
	if err != nil {
		return false, err
	}
	return children.Size() > minNonLeafChildren(order), nil
}

// rotateClockwise rotates through the parent separator at index leftIdx,
// between children leftIdx (spare) and leftIdx+1 (underflowed): left's
// last key/value becomes the new separator, the old separator becomes
// right's first key/value, and (for internal nodes) left's last child
// moves to become right's first child.
func rotateClockwise(parent Node, pkeys seq.Sequence[[]byte], pvalues seq.Sequence[store.Handle], pchildren seq.Sequence[Node], leftIdx int, leaf bool) error {
	left, err := pchildren.Get(leftIdx)
	if err != nil {
		return err
	}
	right, err := pchildren.Get(leftIdx + 1)
	if err != nil {
		return err
	}
	lKeys, err := left.Keys()
	if err != nil {
		return err
	}
	lValues, err := left.Values()
	if err != nil {
		return err
	}
	lChildren, err := left.Children()
	if err != nil {
		return err
	}
	rKeys, err := right.Keys()
	if err != nil {
		return err
	}
	rValues, err := right.Values()
	if err != nil {
		return err
	}
	rChildren, err := right.Children()
	if err != nil {
		return err
	}

	lLast := lKeys.Size() - 1
	lastKey, err := lKeys.Get(lLast)
	if err != nil {
		return err
	}
	lastValue, err := lValues.Get(lLast)
	if err != nil {
		return err
	}
	sepKey, err := pkeys.Get(leftIdx)
	if err != nil {
		return err
	}
	sepValue, err := pvalues.Get(leftIdx)
	if err != nil {
		return err
	}

	newLKeys := lKeys.SpliceOut(lLast)
	newLValues := lValues.SpliceOut(lLast)
	newLChildren := lChildren
	newRKeys := rKeys.SpliceIn(0, sepKey)
	newRValues := rValues.SpliceIn(0, sepValue)
	newRChildren := rChildren
	if !leaf {
		lLastChild := lChildren.Size() - 1
		movedChild, err := lChildren.Get(lLastChild)
		if err != nil {
			return err
		}
		newLChildren = lChildren.Slice(0, lLastChild)
		newRChildren = rChildren.SpliceIn(0, movedChild)
	}

	if err := left.Update(newLKeys, newLValues, newLChildren); err != nil {
		return err
	}
	if err := right.Update(newRKeys, newRValues, newRChildren); err != nil {
		return err
	}
	newPKeys := pkeys.With(leftIdx, lastKey)
	newPValues := pvalues.With(leftIdx, lastValue)
	return parent.Update(newPKeys, newPValues, pchildren)
}

// rotateCounterClockwise is rotateClockwise's mirror: right (spare)
// donates its first key/value/child to left (underflowed) through the
// parent separator at index leftIdx.
func rotateCounterClockwise(parent Node, pkeys seq.Sequence[[]byte], pvalues seq.Sequence[store.Handle], pchildren seq.Sequence[Node], leftIdx int, leaf bool) error {
	left, err := pchildren.Get(leftIdx)
	if err != nil {
		return err
	}
	right, err := pchildren.Get(leftIdx + 1)
	if err != nil {
		return err
	}
	lKeys, err := left.Keys()
	if err != nil {
		return err
	}
	lValues, err := left.Values()
	if err != nil {
		return err
	}
	lChildren, err := left.Children()
	if err != nil {
		return err
	}
	rKeys, err := right.Keys()
	if err != nil {
		return err
	}
	rValues, err := right.Values()
	if err != nil {
		return err
	}
	rChildren, err := right.Children()
	if err != nil {
		return err
	}

	firstKey, err := rKeys.Get(0)
	if err != nil {
		return err
	}
	firstValue, err := rValues.Get(0)
	if err != nil {
		return err
	}
	sepKey, err := pkeys.Get(leftIdx)
	if err != nil {
		return err
	}
	sepValue, err := pvalues.Get(leftIdx)
	if err != nil {
		return err
	}

	newRKeys := rKeys.SpliceOut(0)
	newRValues := rValues.SpliceOut(0)
	newLKeys := lKeys.SpliceIn(lKeys.Size(), sepKey)
	newLValues := lValues.SpliceIn(lValues.Size(), sepValue)
	newLChildren := lChildren
	newRChildren := rChildren
	if !leaf {
		movedChild, err := rChildren.Get(0)
		if err != nil {
			return err
		}
		newRChildren = rChildren.Slice(1, rChildren.Size())
		newLChildren = lChildren.SpliceIn(lChildren.Size(), movedChild)
	}

	if err := left.Update(newLKeys, newLValues, newLChildren); err != nil {
		return err
	}
	if err := right.Update(newRKeys, newRValues, newRChildren); err != nil {
		return err
	}
	newPKeys := pkeys.With(leftIdx, firstKey)
	newPValues := pvalues.With(leftIdx, firstValue)
	return parent.Update(newPKeys, newPValues, pchildren)
}

// mergeChildren absorbs the separator at leftIdx and the right child into
// the left child, then removes that key/child pair from parent. Returns
// whether parent itself now underflows.
func mergeChildren(parent Node, pkeys seq.Sequence[[]byte], pvalues seq.Sequence[store.Handle], pchildren seq.Sequence[Node], leftIdx, order int) (bool, error) {
	left, err := pchildren.Get(leftIdx)
	if err != nil {
		return false, err
	}
	right, err := pchildren.Get(leftIdx + 1)
	if err != nil {
		return false, err
	}
	lKeys, err := left.Keys()
	if err != nil {
		return false, err
	}
	lValues, err := left.Values()
	if err != nil {
		return false, err
	}
	lChildren, err := left.Children()
	if err != nil {
		return false, err
	}
	rKeys, err := right.Keys()
	if err != nil {
		return false, err
	}
	rValues, err := right.Values()
	if err != nil {
		return false, err
	}
	rChildren, err := right.Children()
	if err != nil {
		return false, err
	}
	sepKey, err := pkeys.Get(leftIdx)
	if err != nil {
		return false, err
	}
	sepValue, err := pvalues.Get(leftIdx)
	if err != nil {
		return false, err
	}

	mergedKeys := lKeys.Concat(seq.Wrap([][]byte{sepKey})).Concat(rKeys)
	mergedValues := lValues.Concat(seq.Wrap([]store.Handle{sepValue})).Concat(rValues)
	mergedChildren := lChildren.Concat(rChildren)
	if err := left.Update(mergedKeys, mergedValues, mergedChildren); err != nil {
		return false, err
	}

	newPKeys := pkeys.SpliceOut(leftIdx)
	newPValues := pvalues.SpliceOut(leftIdx)
	newPChildren := pchildren.SpliceOut(leftIdx + 1)
	if err := parent.Update(newPKeys, newPValues, newPChildren); err != nil {
		return false, err
	}
	return newPChildren.Size() < minNonLeafChildren(order), nil
}

// ForEach visits every (key, value) pair in ascending key order.
func (t *BTree) ForEach(ctx context.Context, s store.Store, visit func(key []byte, value store.Handle) error) error {
	return store.RunTx(ctx, s, nil, func(st store.Store) error {
		return forEach(newStoreNode(st, t.root, t.cmp), visit)
	})
}

func forEach(n Node, visit func([]byte, store.Handle) error) error {
	keys, err := n.Keys()
	if err != nil {
		return err
	}
	values, err := n.Values()
	if err != nil {
		return err
	}
	children, err := n.Children()
	if err != nil {
		return err
	}
	leaf := children.Size() == 0
	for i := 0; i < keys.Size(); i++ {
		if !leaf {
			c, err := children.Get(i)
			if err != nil {
				return err
			}
			if err := forEach(c, visit); err != nil {
				return err
			}
		}
		k, err := keys.Get(i)
		if err != nil {
			return err
		}
		v, err := values.Get(i)
		if err != nil {
			return err
		}
		if err := visit(k, v); err != nil {
			return err
		}
	}
	if !leaf {
		c, err := children.Get(children.Size() - 1)
		if err != nil {
			return err
		}
		if err := forEach(c, visit); err != nil {
			return err
		}
	}
	return nil
}

// probe is the least-upper-bound scan of spec §4.3: the smallest index i
// with keys[i] >= key (or keys.Size() if none), and whether keys[i] == key.
func probe(keys seq.Sequence[[]byte], key []byte, cmp Comparator) (int, bool, error) {
	n := keys.Size()
	for i := 0; i < n; i++ {
		k, err := keys.Get(i)
		if err != nil {
			return 0, false, err
		}
		c := cmp(k, key)
		if c == 0 {
			return i, true, nil
		}
		if c > 0 {
			return i, false, nil
		}
	}
	return n, false, nil
}
