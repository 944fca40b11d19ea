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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// Hasher is the keyed, 128-bit-seeded pseudorandom hash over byte strings
// that the linear hash treats as an external collaborator: only its
// contract matters (deterministic u64 per (hashKey, key) pair, uniform
// enough to keep bucket chains short), not a specific algorithm choice.
type Hasher interface {
	Hash(hashKey [16]byte, key []byte) uint64
}

// DefaultHasher is used whenever CreateEmpty/FromRoot are given a nil
// Hasher. It derives a keyed 64-bit digest via HMAC-SHA256 truncation,
// which gives the determinism a persisted hashKey requires (hash/maphash's
// Seed cannot be constructed from arbitrary bytes, so it can't serve here).
var DefaultHasher Hasher = hmacHasher{}

type hmacHasher struct{}

func (hmacHasher) Hash(hashKey [16]byte, key []byte) uint64 {
	mac := hmac.New(sha256.New, hashKey[:])
	mac.Write(key)
	sum := mac.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
