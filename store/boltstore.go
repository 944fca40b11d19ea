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
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

var objectsBucket = []byte("objects")

// BoltStore is a Store backed by a single go.etcd.io/bbolt database file.
// Because bbolt serializes writers and commits/rolls back a transaction as
// a whole, BoltStore never needs to report ErrRestart: spec §5's "readers
// observe either the full pre-image or the full post-image" already holds
// for every bbolt transaction.
type BoltStore struct {
	db      *bolt.DB
	backend string
}

// OpenBoltStore opens (creating if necessary) a bbolt database at path and
// ensures its single object bucket exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(objectsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init %s: %v", ErrStore, path, err)
	}
	return &BoltStore{db: db, backend: path}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

type boltRecord struct {
	Payload []byte   `msgpack:"payload"`
	Refs    []uint64 `msgpack:"refs"`
}

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func (s *BoltStore) handlesToIDs(refs []Handle) []uint64 {
	ids := make([]uint64, len(refs))
	for i, h := range refs {
		ids[i] = h.id
	}
	return ids
}

func (s *BoltStore) idsToHandles(ids []uint64) []Handle {
	if ids == nil {
		return nil
	}
	refs := make([]Handle, len(ids))
	for i, id := range ids {
		refs[i] = Handle{backend: s.backend, id: id}
	}
	return refs
}

// Create implements Store.
func (s *BoltStore) Create(payload []byte, refs []Handle) (Handle, error) {
	var h Handle
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		buf, err := msgpack.Marshal(boltRecord{Payload: payload, Refs: s.handlesToIDs(refs)})
		if err != nil {
			return err
		}
		if err := b.Put(idKey(id), buf); err != nil {
			return err
		}
		h = Handle{backend: s.backend, id: id}
		return nil
	})
	if err != nil {
		return Handle{}, fmt.Errorf("%w: create: %v", ErrStore, err)
	}
	return h, nil
}

// Read implements Store.
func (s *BoltStore) Read(h Handle) ([]byte, []Handle, error) {
	var rec boltRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		buf := tx.Bucket(objectsBucket).Get(idKey(h.id))
		if buf == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(buf, &rec)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read: %v", ErrDecode, err)
	}
	if !found {
		return nil, nil, ErrNotFound
	}
	return rec.Payload, s.idsToHandles(rec.Refs), nil
}

// Write implements Store.
func (s *BoltStore) Write(h Handle, payload []byte, refs []Handle) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		key := idKey(h.id)
		if b.Get(key) == nil {
			return ErrNotFound
		}
		buf, err := msgpack.Marshal(boltRecord{Payload: payload, Refs: s.handlesToIDs(refs)})
		if err != nil {
			return err
		}
		return b.Put(key, buf)
	})
	if err != nil {
		return fmt.Errorf("%w: write: %v", ErrStore, err)
	}
	return nil
}
