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
	"math/rand"
	"testing"

	"github.com/kvtrees/txmap/seq"
	"github.com/kvtrees/txmap/store"
)

// memTree exercises insertRecursive/deleteRecursive directly against a
// memNode root, with no store.Store involved at all: the "in-memory test
// harness" the Node abstraction exists to support.
type memTree struct {
	root  Node
	order int
	cmp   Comparator
}

func newMemTree(order int) *memTree {
	return &memTree{root: newMemNode(nil, nil, nil), order: order, cmp: DefaultComparator}
}

func (mt *memTree) put(t *testing.T, k []byte, v store.Handle) {
	t.Helper()
	sr, err := insertRecursive(mt.root, k, v, mt.cmp, mt.order)
	if err != nil {
		t.Fatalf("insertRecursive: %v", err)
	}
	if sr == nil {
		return
	}
	curKeys, _ := mt.root.Keys()
	curValues, _ := mt.root.Values()
	curChildren, _ := mt.root.Children()
	clonedOldRoot, err := mt.root.CreateSibling(curKeys, curValues, curChildren)
	if err != nil {
		t.Fatalf("CreateSibling: %v", err)
	}
	if err := mt.root.Update(
		seq.Wrap([][]byte{sr.key}),
		seq.Wrap([]store.Handle{sr.value}),
		seq.Wrap([]Node{sr.left, clonedOldRoot}),
	); err != nil {
		t.Fatalf("root Update: %v", err)
	}
}

func (mt *memTree) remove(t *testing.T, k []byte) {
	t.Helper()
	_, found, err := deleteRecursive(mt.root, k, mt.cmp, mt.order)
	if err != nil {
		t.Fatalf("deleteRecursive: %v", err)
	}
	if !found {
		return
	}
	leaf, _ := mt.root.IsLeaf()
	if leaf {
		return
	}
	children, _ := mt.root.Children()
	if children.Size() != 1 {
		return
	}
	child, _ := children.Get(0)
	cKeys, _ := child.Keys()
	cValues, _ := child.Values()
	cChildren, _ := child.Children()
	if err := mt.root.Update(cKeys, cValues, cChildren); err != nil {
		t.Fatalf("root collapse: %v", err)
	}
}

func TestMemNodeHarnessFuzz(t *testing.T) {
	const n = 300
	mt := newMemTree(4)
	present := map[int]bool{}
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		k := r.Intn(n)
		if r.Intn(2) == 0 {
			mt.put(t, key(k), store.Handle{})
			present[k] = true
		} else {
			mt.remove(t, key(k))
			delete(present, k)
		}
		if err := checkMemInvariants(mt); err != nil {
			t.Fatalf("iteration %d (key %d): %v", i, k, err)
		}
	}

	for k := range present {
		keys, _ := mt.root.Keys()
		i, exact, err := probe(keys, key(k), mt.cmp)
		if err != nil {
			t.Fatal(err)
		}
		_ = i
		if exact {
			continue
		}
		if found, err := findInMemTree(mt, key(k)); err != nil || !found {
			t.Fatalf("key %d should still be present", k)
		}
	}
}

func findInMemTree(mt *memTree, k []byte) (bool, error) {
	node := mt.root
	for {
		keys, err := node.Keys()
		if err != nil {
			return false, err
		}
		i, exact, err := probe(keys, k, mt.cmp)
		if err != nil {
			return false, err
		}
		if exact {
			return true, nil
		}
		leaf, err := node.IsLeaf()
		if err != nil {
			return false, err
		}
		if leaf {
			return false, nil
		}
		children, err := node.Children()
		if err != nil {
			return false, err
		}
		node, err = children.Get(i)
		if err != nil {
			return false, err
		}
	}
}

func checkMemInvariants(mt *memTree) error {
	_, err := checkNode(mt.root, mt.order, mt.cmp, true, nil, nil)
	return err
}
