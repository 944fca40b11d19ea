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


// Package btree implements an order-parameterised B-tree over the
// transactional object store contract in package store: lookup, insertion,
// deletion, in-order traversal and cursor positioning, with every node
// mutation re-encoded and written through a store.Handle.
//
// The algorithm in tree.go is written against the Node capability set
// (node.go) so the same code drives both memNode, a pure in-memory backing
// used to test the algorithm without store I/O, and storeNode, the
// persistent backing used by the public BTree type.
package btree

import (
	"github.com/kvtrees/txmap/seq"
	"github.com/kvtrees/txmap/store"
)

// Comparator orders two keys, returning <0, 0, >0 like bytes.Compare.
type Comparator func(a, b []byte) int

// DefaultComparator is lexicographic on unsigned bytes, with a shorter
// string ordered before a longer one that shares its prefix.
func DefaultComparator(a, b []byte) int {
	la, lb := len(a), len(b)
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// Node is the polymorphic backing the B-tree algorithm is written against:
// keys as a Sequence<[]byte>, values as a Sequence<store.Handle>, children
// as a Sequence<Node>, plus update-in-place and create-a-fresh-peer.
//
// Two implementations exist: memNode (owns three plain arrays) and
// storeNode (holds a store.Handle and decodes lazily). IsLeaf is always
// Children().Size() == 0.
type Node interface {
	// Keys returns this node's key sequence.
	Keys() (seq.Sequence[[]byte], error)
	// Values returns this node's value-handle sequence, same length as Keys.
	Values() (seq.Sequence[store.Handle], error)
	// Children returns this node's child sequence: empty for a leaf,
	// Keys().Size()+1 otherwise. Children are reified lazily: reading this
	// sequence does not itself read through any child handle.
	Children() (seq.Sequence[Node], error)
	// IsLeaf reports whether Children() is empty.
	IsLeaf() (bool, error)
	// Update atomically replaces this node's three sequences, preserving
	// its identity (handle, for a persistent node). Preconditions:
	// values.Size() == keys.Size(); children.Size() is 0 or keys.Size()+1.
	Update(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) error
	// CreateSibling allocates a fresh peer node with the given content. For
	// a persistent node this creates a new store object; the original
	// node's identity is untouched.
	CreateSibling(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) (Node, error)
}
