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
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/kvtrees/txmap/store"
)

func key(n int) []byte { return []byte(fmt.Sprintf("key-%05d", n)) }

func val(s store.Store, n int) store.Handle {
	h, err := s.Create([]byte(fmt.Sprintf("value-%d", n)), nil)
	if err != nil {
		panic(err)
	}
	return h
}

func mustTree(t *testing.T, order int) (*BTree, store.Store) {
	t.Helper()
	s := store.NewMemStore()
	root, err := CreateEmpty(context.Background(), s, order, nil)
	if err != nil {
		t.Fatalf("CreateEmpty: %v", err)
	}
	return FromRoot(order, nil, root), s
}

func TestMinimalSplitOrder3(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 3)

	for i := 0; i < 4; i++ {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
		if err := CheckInvariants(ctx, s, tree); err != nil {
			t.Fatalf("after Put(%d): %v\n%s", i, err, spew.Sdump(tree))
		}
	}

	n, err := tree.Size(ctx, s)
	if err != nil || n != 4 {
		t.Fatalf("Size() = %d, %v; want 4, nil", n, err)
	}
	for i := 0; i < 4; i++ {
		_, found, err := tree.Find(ctx, s, key(i))
		if err != nil || !found {
			t.Fatalf("Find(%d) = _, %v, %v; want found", i, found, err)
		}
	}
}

func TestDeletionWithRotation(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 3)

	const n = 20
	for i := 0; i < n; i++ {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
	if err := CheckInvariants(ctx, s, tree); err != nil {
		t.Fatalf("after inserts: %v", err)
	}

	for i := 0; i < n; i++ {
		if err := tree.Remove(ctx, s, key(i)); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
		if err := CheckInvariants(ctx, s, tree); err != nil {
			t.Fatalf("after Remove(%d): %v", i, err)
		}
		for j := i + 1; j < n; j++ {
			if _, found, err := tree.Find(ctx, s, key(j)); err != nil || !found {
				t.Fatalf("after removing %d, Find(%d) = _, %v, %v; want found", i, j, found, err)
			}
		}
	}
	size, err := tree.Size(ctx, s)
	if err != nil || size != 0 {
		t.Fatalf("final Size() = %d, %v; want 0, nil", size, err)
	}
}

func TestPutReplacesExistingValue(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 4)

	k := key(7)
	v1 := val(s, 1)
	v2 := val(s, 2)

	if err := tree.Put(ctx, s, k, v1); err != nil {
		t.Fatal(err)
	}
	if err := tree.Put(ctx, s, k, v2); err != nil {
		t.Fatal(err)
	}

	got, found, err := tree.Find(ctx, s, k)
	if err != nil || !found {
		t.Fatalf("Find = _, %v, %v; want found", found, err)
	}
	if !store.SameReferent(got, v2) {
		t.Fatalf("Find returned %v, want %v (the replacement, not the original)", got, v2)
	}
	n, err := tree.Size(ctx, s)
	if err != nil || n != 1 {
		t.Fatalf("Size() = %d, %v; want 1, nil (replace must not grow the tree)", n, err)
	}
}

func TestLexicographicComparator(t *testing.T) {
	cases := []struct {
		a, b []byte
		want int
	}{
		{[]byte("a"), []byte("b"), -1},
		{[]byte("b"), []byte("a"), 1},
		{[]byte("a"), []byte("a"), 0},
		{[]byte("ab"), []byte("a"), 1},
		{[]byte("a"), []byte("ab"), -1},
		{[]byte(""), []byte(""), 0},
		{[]byte(""), []byte("a"), -1},
	}
	for _, c := range cases {
		if got := DefaultComparator(c.a, c.b); sign(got) != sign(c.want) {
			t.Errorf("DefaultComparator(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 4)

	const n = 50
	order := rand.New(rand.NewSource(1)).Perm(n)
	for _, i := range order {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := tree.Cursor(ctx, s)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	var got []string
	for c.InTree() {
		k, _, err := c.Key()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, string(k))
		if err := c.MoveRight(); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != n {
		t.Fatalf("cursor visited %d keys, want %d", len(got), n)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("cursor not in ascending order at %d: %q >= %q", i, got[i-1], got[i])
		}
	}
}

func TestCursorAtFindsSuccessor(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 4)

	for _, i := range []int{0, 2, 4, 6, 8} {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := tree.CursorAt(ctx, s, key(3))
	if err != nil {
		t.Fatalf("CursorAt: %v", err)
	}
	if !c.InTree() {
		t.Fatal("CursorAt(3) should land on the successor key(4)")
	}
	k, _, err := c.Key()
	if err != nil {
		t.Fatal(err)
	}
	if string(k) != string(key(4)) {
		t.Fatalf("CursorAt(3).Key() = %q, want %q", k, key(4))
	}

	c2, err := tree.CursorAt(ctx, s, key(9))
	if err != nil {
		t.Fatalf("CursorAt(9): %v", err)
	}
	if c2.InTree() {
		t.Fatal("CursorAt past the largest key should be out of tree")
	}
}

func TestForEachIsPermutationInvariant(t *testing.T) {
	const n = 40
	ctx := context.Background()

	collect := func(order []int) []string {
		tree, s := mustTree(t, 5)
		for _, i := range order {
			if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
				t.Fatal(err)
			}
		}
		var got []string
		err := tree.ForEach(ctx, s, func(k []byte, _ store.Handle) error {
			got = append(got, string(k))
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	inOrder := make([]int, n)
	for i := range inOrder {
		inOrder[i] = i
	}
	shuffled := rand.New(rand.NewSource(2)).Perm(n)

	a := collect(inOrder)
	b := collect(shuffled)
	if len(a) != len(b) {
		t.Fatalf("len mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ForEach order differs at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestEmptyTreeBoundary(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 3)

	if n, err := tree.Size(ctx, s); err != nil || n != 0 {
		t.Fatalf("Size() on empty tree = %d, %v; want 0, nil", n, err)
	}
	if _, found, err := tree.Find(ctx, s, key(0)); err != nil || found {
		t.Fatalf("Find on empty tree = _, %v, %v; want not found", found, err)
	}
	if err := tree.Remove(ctx, s, key(0)); err != nil {
		t.Fatalf("Remove on empty tree: %v", err)
	}
	c, err := tree.Cursor(ctx, s)
	if err != nil {
		t.Fatalf("Cursor on empty tree: %v", err)
	}
	if c.InTree() {
		t.Fatal("Cursor on empty tree should not be in tree")
	}
	if err := CheckInvariants(ctx, s, tree); err != nil {
		t.Fatalf("CheckInvariants on empty tree: %v", err)
	}
}

func TestOrderThreeIsMinimal(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 3)

	const n = 200
	perm := rand.New(rand.NewSource(3)).Perm(n)
	for _, i := range perm {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
		if err := CheckInvariants(ctx, s, tree); err != nil {
			t.Fatalf("after Put(%d): %v", i, err)
		}
	}
	removal := rand.New(rand.NewSource(4)).Perm(n)
	for _, i := range removal {
		if err := tree.Remove(ctx, s, key(i)); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
		if err := CheckInvariants(ctx, s, tree); err != nil {
			t.Fatalf("after Remove(%d): %v", i, err)
		}
	}
}

func TestRootHandleStableAcrossSplits(t *testing.T) {
	ctx := context.Background()
	tree, s := mustTree(t, 3)
	root0 := tree.RootHandle()

	for i := 0; i < 30; i++ {
		if err := tree.Put(ctx, s, key(i), val(s, i)); err != nil {
			t.Fatal(err)
		}
	}
	if !store.SameReferent(root0, tree.RootHandle()) {
		t.Fatal("BTree.root field changed identity unexpectedly")
	}
	reopened := FromRoot(3, nil, root0)
	n, err := reopened.Size(ctx, s)
	if err != nil || n != 30 {
		t.Fatalf("reopening by root handle: Size() = %d, %v; want 30, nil", n, err)
	}
}
