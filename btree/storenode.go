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
	"fmt"

	"github.com/kvtrees/txmap/seq"
	"github.com/kvtrees/txmap/store"
)

// storeNode is the persistent Node backing: it holds only a store.Handle
// until something forces a decode. Per spec §9's open question on
// persistent node caching, storeNode re-reads on every fresh construction
// and never survives a restart boundary — every BTree method builds a
// brand new storeNode tree from the root handle on each transaction
// attempt, so there is nothing to invalidate when store.RunTx redrives.
type storeNode struct {
	s      store.Store
	handle store.Handle
	cmp    Comparator

	loaded       bool
	keys         [][]byte
	values       []store.Handle
	childHandles []store.Handle
}

func newStoreNode(s store.Store, h store.Handle, cmp Comparator) *storeNode {
	return &storeNode{s: s, handle: h, cmp: cmp}
}

func (n *storeNode) load() error {
	if n.loaded {
		return nil
	}
	payload, refs, err := n.s.Read(n.handle)
	if err != nil {
		return err
	}
	keys, err := decodeNodeKeys(payload)
	if err != nil {
		return err
	}
	if len(refs) < len(keys) {
		return fmt.Errorf("%w: node %s has %d refs for %d keys", store.ErrDecode, n.handle, len(refs), len(keys))
	}
	if rest := len(refs) - len(keys); rest != 0 && rest != len(keys)+1 {
		return fmt.Errorf("%w: node %s has %d child refs, want 0 or %d", store.ErrDecode, n.handle, rest, len(keys)+1)
	}
	n.keys = keys
	n.values = append([]store.Handle(nil), refs[:len(keys)]...)
	n.childHandles = append([]store.Handle(nil), refs[len(keys):]...)
	n.loaded = true
	return nil
}

func (n *storeNode) Keys() (seq.Sequence[[]byte], error) {
	if err := n.load(); err != nil {
		return nil, err
	}
	return seq.Wrap(n.keys), nil
}

func (n *storeNode) Values() (seq.Sequence[store.Handle], error) {
	if err := n.load(); err != nil {
		return nil, err
	}
	return seq.Wrap(n.values), nil
}

func (n *storeNode) Children() (seq.Sequence[Node], error) {
	if err := n.load(); err != nil {
		return nil, err
	}
	children := make([]Node, len(n.childHandles))
	for i, h := range n.childHandles {
		children[i] = newStoreNode(n.s, h, n.cmp)
	}
	return seq.Wrap(children), nil
}

func (n *storeNode) IsLeaf() (bool, error) {
	if err := n.load(); err != nil {
		return false, err
	}
	return len(n.childHandles) == 0, nil
}

func (n *storeNode) Update(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) error {
	payload, refs, err := encodeNode(keys, values, children)
	if err != nil {
		return err
	}
	if err := n.s.Write(n.handle, payload, refs); err != nil {
		return err
	}
	n.keys = seq.ToSlice(keys)
	n.values = seq.ToSlice(values)
	n.childHandles = refs[len(n.keys):]
	n.loaded = true
	return nil
}

func (n *storeNode) CreateSibling(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) (Node, error) {
	payload, refs, err := encodeNode(keys, values, children)
	if err != nil {
		return nil, err
	}
	h, err := n.s.Create(payload, refs)
	if err != nil {
		return nil, err
	}
	sib := newStoreNode(n.s, h, n.cmp)
	sib.keys = seq.ToSlice(keys)
	sib.values = seq.ToSlice(values)
	sib.childHandles = refs[len(sib.keys):]
	sib.loaded = true
	return sib, nil
}

// encodeNode validates the Node.Update/CreateSibling preconditions of
// spec §4.2 and produces the payload+refs pair of spec §6.2: refs is
// values (K entries) followed by child handles (0 if leaf, else K+1).
func encodeNode(keys seq.Sequence[[]byte], values seq.Sequence[store.Handle], children seq.Sequence[Node]) ([]byte, []store.Handle, error) {
	keySlice := seq.ToSlice(keys)
	valueSlice := seq.ToSlice(values)
	if len(valueSlice) != len(keySlice) {
		return nil, nil, fmt.Errorf("%w: |values|=%d != |keys|=%d", store.ErrInvariantViolation, len(valueSlice), len(keySlice))
	}
	childSlice := seq.ToSlice(children)
	if len(childSlice) != 0 && len(childSlice) != len(keySlice)+1 {
		return nil, nil, fmt.Errorf("%w: |children|=%d must be 0 or |keys|+1=%d", store.ErrInvariantViolation, len(childSlice), len(keySlice)+1)
	}

	payload, err := encodeNodeKeys(keySlice)
	if err != nil {
		return nil, nil, err
	}

	refs := make([]store.Handle, 0, len(valueSlice)+len(childSlice))
	refs = append(refs, valueSlice...)
	for _, c := range childSlice {
		sn, ok := c.(*storeNode)
		if !ok {
			return nil, nil, fmt.Errorf("%w: persistent node requires persistent children", store.ErrInvariantViolation)
		}
		refs = append(refs, sn.handle)
	}
	return payload, refs, nil
}
