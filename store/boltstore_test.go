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

import (
	"path/filepath"
	"testing"
)

func openTestBolt(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.db")
	s, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStoreCreateReadWrite(t *testing.T) {
	s := openTestBolt(t)

	child, err := s.Create([]byte("leaf"), nil)
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}
	root, err := s.Create([]byte("root"), []Handle{child})
	if err != nil {
		t.Fatalf("Create root: %v", err)
	}

	payload, refs, err := s.Read(root)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(payload) != "root" || len(refs) != 1 || !SameReferent(refs[0], child) {
		t.Fatalf("Read = %q, %v", payload, refs)
	}

	if err := s.Write(root, []byte("root2"), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	payload, refs, err = s.Read(root)
	if err != nil || string(payload) != "root2" || len(refs) != 0 {
		t.Fatalf("Read after write = %q, %v, %v", payload, refs, err)
	}
}

func TestBoltStoreWriteUnknownHandle(t *testing.T) {
	s := openTestBolt(t)
	if err := s.Write(Handle{backend: s.backend, id: 42}, []byte("x"), nil); err == nil {
		t.Fatal("Write to unknown handle should fail")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.db")
	s, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	h, err := s.Create([]byte("durable"), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	h2 := Handle{backend: s2.backend, id: h.id}
	payload, _, err := s2.Read(h2)
	if err != nil || string(payload) != "durable" {
		t.Fatalf("Read after reopen = %q, %v", payload, err)
	}
}
