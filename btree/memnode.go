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
	"github.com/kvtrees/txmap/seq"
	"github.com/kvtrees/txmap/store"
)

// memNode is the in-memory Node backing: it owns three plain arrays and
// never touches a store. It exists so the B-tree algorithm in tree.go can
// be exercised and fuzzed without store I/O, per spec §4.2's "generic node
// abstraction lets the same algorithm drive both an in-memory test harness
// and a persistent variant."
type memNode struct {
	keys     [][]byte
	values   []store.Handle
	children []Node
}

func newMemNode(keys [][]byte, values []store.Handle, children []Node) *memNode {
	return &memNode{keys: keys, values: values, children: children}
}

func (n *memNode) Keys() (seq.Sequence[[]byte], error)       { return seq.Wrap(n.keys), nil }
func (n *memNode) Values() (seq.Sequence[store.Handle], error) { return seq.Wrap(n.values), nil }

func (n *memNode) Children() (seq.Sequence[Node], error) {
	return seq.Wrap(n.children), nil
}

func (n *memNode) IsLeaf() (bool, error) { return len(n.children) == 0, nil }

func (n *memNode) Update(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) error {
	n.keys = seq.ToSlice(keys)
	n.values = seq.ToSlice(values)
	n.children = seq.ToSlice(children)
	return nil
}

func (n *memNode) CreateSibling(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) (Node, error) {
	return newMemNode(seq.ToSlice(keys), seq.ToSlice(values), seq.ToSlice(children)), nil
}
