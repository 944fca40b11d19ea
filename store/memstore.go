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


package store

import "sync"

// MemStore is an in-memory Store backed by a map. It never signals restart
// on its own; wrap it in Flaky to exercise the restart-driving loop.
type MemStore struct {
	mu      sync.Mutex
	objects map[uint64]memObject
	nextID  uint64
}

type memObject struct {
	payload []byte
	refs    []Handle
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[uint64]memObject)}
}

// Create implements Store.
func (s *MemStore) Create(payload []byte, refs []Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.objects[id] = memObject{payload: clone(payload), refs: cloneRefs(refs)}
	return Handle{backend: "mem", id: id}, nil
}

// Read implements Store.
func (s *MemStore) Read(h Handle) ([]byte, []Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[h.id]
	if !ok || h.backend != "mem" {
		return nil, nil, ErrNotFound
	}
	return clone(obj.payload), cloneRefs(obj.refs), nil
}

// Write implements Store.
func (s *MemStore) Write(h Handle, payload []byte, refs []Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[h.id]; !ok || h.backend != "mem" {
		return ErrNotFound
	}
	s.objects[h.id] = memObject{payload: clone(payload), refs: cloneRefs(refs)}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneRefs(refs []Handle) []Handle {
	if refs == nil {
		return nil
	}
	out := make([]Handle, len(refs))
	copy(out, refs)
	return out
}
