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

	"github.com/kvtrees/txmap/store"
)

// frame is one level of a Cursor's descent stack: a node and the index
// into it the cursor currently points at.
type frame struct {
	node Node
	i    int
}

// Cursor is a stateful, single-threaded in-order walk over a BTree, per
// spec §4.4. It is built from one store.RunTx attempt and then moved with
// plain store reads outside any transaction loop: a Cursor does not
// restart the underlying transaction if the tree changes underneath it.
type Cursor struct {
	s     store.Store
	cmp   Comparator
	stack []frame
}

// Cursor returns a cursor positioned at the tree's smallest key.
func (t *BTree) Cursor(ctx context.Context, s store.Store) (*Cursor, error) {
	var c *Cursor
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		var root Node = newStoreNode(st, t.root, t.cmp)
		stack, err := descendLeftmost(root)
		if err != nil {
			return err
		}
		// Only an empty root leaf can have no keys: there is nothing to
		// point at, so the cursor starts out of tree.
		leafKeys, err := stack[len(stack)-1].node.Keys()
		if err != nil {
			return err
		}
		if leafKeys.Size() == 0 {
			stack = nil
		}
		c = &Cursor{s: st, cmp: t.cmp, stack: stack}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CursorAt returns a cursor positioned at key's least upper bound: the
// smallest key present that is >= key, or out-of-tree if none is.
func (t *BTree) CursorAt(ctx context.Context, s store.Store, key []byte) (*Cursor, error) {
	var c *Cursor
	err := store.RunTx(ctx, s, nil, func(st store.Store) error {
		var stack []frame
		var node Node = newStoreNode(st, t.root, t.cmp)
		var needsSuccessor bool
		for {
			keys, err := node.Keys()
			if err != nil {
				return err
			}
			i, exact, err := probe(keys, key, t.cmp)
			if err != nil {
				return err
			}
			leaf, err := node.IsLeaf()
			if err != nil {
				return err
			}
			if !leaf {
				stack = append(stack, frame{node: node, i: i})
				if exact {
					break
				}
				children, err := node.Children()
				if err != nil {
					return err
				}
				node, err = children.Get(i)
				if err != nil {
					return err
				}
				continue
			}
			stack = append(stack, frame{node: node, i: i})
			needsSuccessor = !exact && i == keys.Size()
			break
		}
		c = &Cursor{s: st, cmp: t.cmp, stack: stack}
		if needsSuccessor {
			return c.MoveRight()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func descendLeftmost(node Node) ([]frame, error) {
	var stack []frame
	for {
		stack = append(stack, frame{node: node, i: 0})
		leaf, err := node.IsLeaf()
		if err != nil {
			return nil, err
		}
		if leaf {
			return stack, nil
		}
		children, err := node.Children()
		if err != nil {
			return nil, err
		}
		node, err = children.Get(0)
		if err != nil {
			return nil, err
		}
	}
}

// InTree reports whether the cursor currently points at a key.
func (c *Cursor) InTree() bool { return len(c.stack) > 0 }

// Key returns the key at the cursor's current position.
func (c *Cursor) Key() ([]byte, bool, error) {
	if !c.InTree() {
		return nil, false, nil
	}
	top := c.stack[len(c.stack)-1]
	keys, err := top.node.Keys()
	if err != nil {
		return nil, false, err
	}
	k, err := keys.Get(top.i)
	if err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// Value returns the value at the cursor's current position.
func (c *Cursor) Value() (store.Handle, bool, error) {
	if !c.InTree() {
		return store.Handle{}, false, nil
	}
	top := c.stack[len(c.stack)-1]
	values, err := top.node.Values()
	if err != nil {
		return store.Handle{}, false, err
	}
	v, err := values.Get(top.i)
	if err != nil {
		return store.Handle{}, false, err
	}
	return v, true, nil
}

// MoveRight advances the cursor to the next key in ascending order. Once
// it steps past the tree's largest key, InTree reports false and further
// calls are no-ops.
//
// In-order position for an internal node is keys[i], reached only after
// children[i] (the child preceding it) has been fully visited; children[i+1]
// follows it. A pop that exposes an internal frame as the new stack top
// therefore lands exactly on that separator and must stop there — only a
// second, later MoveRight call advances past it into children[i+1].
func (c *Cursor) MoveRight() error {
	poppedSinceEntry := false
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		leaf, err := top.node.IsLeaf()
		if err != nil {
			return err
		}
		keys, err := top.node.Keys()
		if err != nil {
			return err
		}

		if leaf {
			if top.i < keys.Size()-1 {
				top.i++
				return nil
			}
			c.stack = c.stack[:len(c.stack)-1]
			poppedSinceEntry = true
			continue
		}

		if top.i >= keys.Size() {
			// This node's last child has already been fully visited:
			// nothing left to stop at here.
			c.stack = c.stack[:len(c.stack)-1]
			poppedSinceEntry = true
			continue
		}

		if poppedSinceEntry {
			// Just unwound from the child preceding keys[top.i]: stop so
			// Key()/Value() read this separator.
			return nil
		}

		// Already sitting at keys[top.i] (from a prior call, or from
		// CursorAt's exact match): advance past it into children[top.i+1].
		top.i++
		children, err := top.node.Children()
		if err != nil {
			return err
		}
		child, err := children.Get(top.i)
		if err != nil {
			return err
		}
		rest, err := descendLeftmost(child)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, rest...)
		return nil
	}
	return nil
}
