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
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kvtrees/txmap/store"
)

// encodeNodeKeys produces the payload of spec §6.2: a single array-header
// (count = K) followed by K byte-string values, the keys in order.
func encodeNodeKeys(keys [][]byte) ([]byte, error) {
	if keys == nil {
		// A nil slice would marshal as a msgpack nil, not an array header.
		keys = [][]byte{}
	}
	buf, err := msgpack.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("%w: encode node keys: %v", store.ErrDecode, err)
	}
	return buf, nil
}

// decodeNodeKeys parses a node payload, failing with store.ErrDecode on
// trailing bytes or a malformed array.
func decodeNodeKeys(payload []byte) ([][]byte, error) {
	r := bytes.NewReader(payload)
	dec := msgpack.NewDecoder(r)
	var keys [][]byte
	if err := dec.Decode(&keys); err != nil {
		return nil, fmt.Errorf("%w: decode node keys: %v", store.ErrDecode, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in node payload", store.ErrDecode, r.Len())
	}
	return keys, nil
}
