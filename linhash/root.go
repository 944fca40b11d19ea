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

import "github.com/kvtrees/txmap/store"

// rootState is the decoded form of the linear-hash root object: the
// counters and masks of spec §3/§4.5, plus the ordered top-level bucket
// handles carried as the root object's ref list.
type rootState struct {
	size        uint64
	bucketCount uint64
	splitIndex  uint64
	maskHigh    uint64
	maskLow     uint64
	hashKey     [16]byte
	buckets     []store.Handle
}

func loadRoot(s store.Store, h store.Handle) (*rootState, error) {
	payload, refs, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	r, err := decodeRoot(payload)
	if err != nil {
		return nil, err
	}
	r.buckets = append([]store.Handle(nil), refs...)
	return r, nil
}

func (r *rootState) write(s store.Store, h store.Handle) error {
	payload, err := encodeRoot(r)
	if err != nil {
		return err
	}
	return s.Write(h, payload, r.buckets)
}

// bucketIndex implements spec §4.5's addressing invariant: the low bits
// under maskLow address a bucket of the current generation directly when
// that bucket has not been split yet (index >= splitIndex); for an
// already-split bucket (index < splitIndex) the wider maskHigh chooses
// between it and the bucket it was split into.
func bucketIndex(h uint64, r *rootState) int {
	low := h & r.maskLow
	if low >= r.splitIndex {
		return int(low)
	}
	return int(h & r.maskHigh)
}
