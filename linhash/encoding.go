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


package linhash

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kvtrees/txmap/store"
)

// encodeRoot produces the 6-field map-header payload of spec §6.2.
func encodeRoot(r *rootState) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(6); err != nil {
		return nil, fmt.Errorf("%w: encode root: %v", store.ErrDecode, err)
	}
	fields := []struct {
		name string
		val  uint64
	}{
		{"Size", r.size},
		{"BucketCount", r.bucketCount},
		{"SplitIndex", r.splitIndex},
		{"MaskHigh", r.maskHigh},
		{"MaskLow", r.maskLow},
	}
	for _, f := range fields {
		if err := enc.EncodeString(f.name); err != nil {
			return nil, fmt.Errorf("%w: encode root: %v", store.ErrDecode, err)
		}
		if err := enc.EncodeUint64(f.val); err != nil {
			return nil, fmt.Errorf("%w: encode root: %v", store.ErrDecode, err)
		}
	}
	if err := enc.EncodeString("HashKey"); err != nil {
		return nil, fmt.Errorf("%w: encode root: %v", store.ErrDecode, err)
	}
	if err := enc.EncodeBytes(r.hashKey[:]); err != nil {
		return nil, fmt.Errorf("%w: encode root: %v", store.ErrDecode, err)
	}
	return buf.Bytes(), nil
}

// decodeRoot parses a root payload, rejecting unknown or missing keys per
// spec §6.2.
func decodeRoot(payload []byte) (*rootState, error) {
	r := bytes.NewReader(payload)
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, fmt.Errorf("%w: decode root: %v", store.ErrDecode, err)
	}
	if n != 6 {
		return nil, fmt.Errorf("%w: root has %d fields, want 6", store.ErrDecode, n)
	}

	out := &rootState{}
	seen := make(map[string]bool, 6)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("%w: decode root key: %v", store.ErrDecode, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate root key %q", store.ErrDecode, key)
		}
		seen[key] = true
		switch key {
		case "Size":
			out.size, err = dec.DecodeUint64()
		case "BucketCount":
			out.bucketCount, err = dec.DecodeUint64()
		case "SplitIndex":
			out.splitIndex, err = dec.DecodeUint64()
		case "MaskHigh":
			out.maskHigh, err = dec.DecodeUint64()
		case "MaskLow":
			out.maskLow, err = dec.DecodeUint64()
		case "HashKey":
			var b []byte
			b, err = dec.DecodeBytes()
			if err == nil {
				if len(b) != 16 {
					return nil, fmt.Errorf("%w: hash key has %d bytes, want 16", store.ErrDecode, len(b))
				}
				copy(out.hashKey[:], b)
			}
		default:
			return nil, fmt.Errorf("%w: unknown root key %q", store.ErrDecode, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode root field %q: %v", store.ErrDecode, key, err)
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in root payload", store.ErrDecode, r.Len())
	}
	return out, nil
}

// encodeBucketEntries produces the array-of-binary payload of spec §6.2:
// one entry per slot up to the bucket's current tail, empty slots as
// zero-length binary.
func encodeBucketEntries(entries [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(entries)); err != nil {
		return nil, fmt.Errorf("%w: encode bucket: %v", store.ErrDecode, err)
	}
	for _, e := range entries {
		if e == nil {
			// EncodeBytes(nil) would write a msgpack nil, not a binary.
			e = []byte{}
		}
		if err := enc.EncodeBytes(e); err != nil {
			return nil, fmt.Errorf("%w: encode bucket: %v", store.ErrDecode, err)
		}
	}
	return buf.Bytes(), nil
}

func decodeBucketEntries(payload []byte) ([][]byte, error) {
	r := bytes.NewReader(payload)
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("%w: decode bucket: %v", store.ErrDecode, err)
	}
	if n < 0 {
		n = 0
	}
	entries := make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := dec.DecodeBytes()
		if err != nil {
			return nil, fmt.Errorf("%w: decode bucket entry %d: %v", store.ErrDecode, i, err)
		}
		entries[i] = b
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in bucket payload", store.ErrDecode, r.Len())
	}
	return entries, nil
}
