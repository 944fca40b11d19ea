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


// Package seq implements the lazy, immutable sequence view used throughout
// the btree package: wraps, slices, concatenations, overwrites and maps of
// element sequences that never mutate and never copy until something reads
// them with CopyTo.
//
// A Sequence is a small tagged variant (Wrap | Slice | Concat | With |
// SpliceIn | SpliceOut | Mapped); every derivation is O(1) to construct and
// defers materialization to CopyTo/Get.
package seq

import "fmt"

// ErrRange is returned by Get/CopyTo when the requested position is outside
// the sequence.
var ErrRange = fmt.Errorf("seq: index out of range")

// Sequence is an index-addressable, immutable view over a finite ordered
// run of T. Every method that derives a new Sequence is O(1); Get and
// CopyTo are the only operations that touch underlying storage.
type Sequence[T any] interface {
	// Size returns the number of elements in the view.
	Size() int
	// Get returns the element at position i, or ErrRange if i is out of bounds.
	Get(i int) (T, error)
	// First returns Get(0).
	First() (T, error)
	// Last returns Get(Size()-1).
	Last() (T, error)
	// Slice returns the view over [from, to), clamping to to Size() and
	// from to to.
	Slice(from, to int) Sequence[T]
	// Concat returns a view over this sequence followed by other.
	Concat(other Sequence[T]) Sequence[T]
	// With returns a view equal to this one except position i yields v.
	With(i int, v T) Sequence[T]
	// SpliceIn returns slice(0,i) ++ [v] ++ slice(i, size), one longer.
	SpliceIn(i int, v T) Sequence[T]
	// SpliceOut returns slice(0,i) ++ slice(i+1, size), one shorter.
	SpliceOut(i int) Sequence[T]
	// Map returns a pointwise-transformed view.
	Map(f func(T) T) Sequence[T]
	// CopyTo materializes [srcPos, srcPos+length) into dst[dstPos:], and
	// fails with ErrRange if srcPos+length exceeds Size().
	CopyTo(srcPos int, dst []T, dstPos int, length int) error
	// WithoutFirst is Slice(1, Size()).
	WithoutFirst() Sequence[T]
	// WithoutLast is Slice(0, Size()-1).
	WithoutLast() Sequence[T]
}

// Empty returns a zero-length sequence.
func Empty[T any]() Sequence[T] {
	return wrapSeq[T]{xs: nil}
}

// Wrap borrows xs as a sequence of its length. The caller must not mutate
// xs after wrapping: views never copy eagerly.
func Wrap[T any](xs []T) Sequence[T] {
	return wrapSeq[T]{xs: xs}
}

// ToSlice materializes s into a freshly allocated []T.
func ToSlice[T any](s Sequence[T]) []T {
	out := make([]T, s.Size())
	if len(out) > 0 {
		if err := s.CopyTo(0, out, 0, len(out)); err != nil {
			panic(err) // size() and CopyTo must agree; a mismatch is a bug in this package
		}
	}
	return out
}

// Fold performs a left fold over s. It is a free function, not a method,
// because Go methods cannot introduce a second type parameter.
func Fold[T, A any](s Sequence[T], f func(acc A, v T) A, acc A) A {
	for i := 0; i < s.Size(); i++ {
		v, err := s.Get(i)
		if err != nil {
			panic(err)
		}
		acc = f(acc, v)
	}
	return acc
}

// base implements every derivation in terms of Size/Get/CopyTo, which each
// concrete variant below supplies.
type base[T any] struct {
	self Sequence[T]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func derive[T any](self Sequence[T]) base[T] {
	return base[T]{self: self}
}

func (b base[T]) First() (T, error) { return b.self.Get(0) }
func (b base[T]) Last() (T, error)  { return b.self.Get(b.self.Size() - 1) }

func (b base[T]) Slice(from, to int) Sequence[T] {
	size := b.self.Size()
	to = clamp(to, 0, size)
	from = clamp(from, 0, to)
	return sliceSeq[T]{base: b.self, from: from, to: to}
}

func (b base[T]) Concat(other Sequence[T]) Sequence[T] {
	return concatSeq[T]{a: b.self, b: other}
}

func (b base[T]) With(i int, v T) Sequence[T] {
	return withSeq[T]{base: b.self, i: i, v: v}
}

func (b base[T]) SpliceIn(i int, v T) Sequence[T] {
	return b.self.Slice(0, i).Concat(Wrap([]T{v})).Concat(b.self.Slice(i, b.self.Size()))
}

func (b base[T]) SpliceOut(i int) Sequence[T] {
	return b.self.Slice(0, i).Concat(b.self.Slice(i+1, b.self.Size()))
}

func (b base[T]) Map(f func(T) T) Sequence[T] {
	return mappedSeq[T]{base: b.self, f: f}
}

func (b base[T]) WithoutFirst() Sequence[T] { return b.self.Slice(1, b.self.Size()) }
func (b base[T]) WithoutLast() Sequence[T]  { return b.self.Slice(0, b.self.Size()-1) }

// wrapSeq borrows a plain slice.
type wrapSeq[T any] struct{ xs []T }

func (s wrapSeq[T]) Size() int { return len(s.xs) }

func (s wrapSeq[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(s.xs) {
		return zero, ErrRange
	}
	return s.xs[i], nil
}

func (s wrapSeq[T]) CopyTo(srcPos int, dst []T, dstPos int, length int) error {
	if srcPos < 0 || srcPos+length > len(s.xs) {
		return ErrRange
	}
	copy(dst[dstPos:dstPos+length], s.xs[srcPos:srcPos+length])
	return nil
}

func (s wrapSeq[T]) First() (T, error)               { return derive[T](s).First() }
func (s wrapSeq[T]) Last() (T, error)                { return derive[T](s).Last() }
func (s wrapSeq[T]) Slice(from, to int) Sequence[T]   { return derive[T](s).Slice(from, to) }
func (s wrapSeq[T]) Concat(o Sequence[T]) Sequence[T] { return derive[T](s).Concat(o) }
func (s wrapSeq[T]) With(i int, v T) Sequence[T]      { return derive[T](s).With(i, v) }
func (s wrapSeq[T]) SpliceIn(i int, v T) Sequence[T]  { return derive[T](s).SpliceIn(i, v) }
func (s wrapSeq[T]) SpliceOut(i int) Sequence[T]      { return derive[T](s).SpliceOut(i) }
func (s wrapSeq[T]) Map(f func(T) T) Sequence[T]      { return derive[T](s).Map(f) }
func (s wrapSeq[T]) WithoutFirst() Sequence[T]        { return derive[T](s).WithoutFirst() }
func (s wrapSeq[T]) WithoutLast() Sequence[T]         { return derive[T](s).WithoutLast() }

// sliceSeq is a [from,to) window over another sequence.
type sliceSeq[T any] struct {
	base     Sequence[T]
	from, to int
}

func (s sliceSeq[T]) Size() int { return s.to - s.from }

func (s sliceSeq[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= s.Size() {
		return zero, ErrRange
	}
	return s.base.Get(s.from + i)
}

func (s sliceSeq[T]) CopyTo(srcPos int, dst []T, dstPos int, length int) error {
	if srcPos < 0 || srcPos+length > s.Size() {
		return ErrRange
	}
	return s.base.CopyTo(s.from+srcPos, dst, dstPos, length)
}

func (s sliceSeq[T]) First() (T, error)               { return derive[T](s).First() }
func (s sliceSeq[T]) Last() (T, error)                { return derive[T](s).Last() }
func (s sliceSeq[T]) Slice(from, to int) Sequence[T]   { return derive[T](s).Slice(from, to) }
func (s sliceSeq[T]) Concat(o Sequence[T]) Sequence[T] { return derive[T](s).Concat(o) }
func (s sliceSeq[T]) With(i int, v T) Sequence[T]      { return derive[T](s).With(i, v) }
func (s sliceSeq[T]) SpliceIn(i int, v T) Sequence[T]  { return derive[T](s).SpliceIn(i, v) }
func (s sliceSeq[T]) SpliceOut(i int) Sequence[T]      { return derive[T](s).SpliceOut(i) }
func (s sliceSeq[T]) Map(f func(T) T) Sequence[T]      { return derive[T](s).Map(f) }
func (s sliceSeq[T]) WithoutFirst() Sequence[T]        { return derive[T](s).WithoutFirst() }
func (s sliceSeq[T]) WithoutLast() Sequence[T]         { return derive[T](s).WithoutLast() }

// concatSeq is a followed by b.
type concatSeq[T any] struct{ a, b Sequence[T] }

func (s concatSeq[T]) Size() int { return s.a.Size() + s.b.Size() }

func (s concatSeq[T]) Get(i int) (T, error) {
	if i < s.a.Size() {
		return s.a.Get(i)
	}
	return s.b.Get(i - s.a.Size())
}

func (s concatSeq[T]) CopyTo(srcPos int, dst []T, dstPos int, length int) error {
	if srcPos < 0 || srcPos+length > s.Size() {
		return ErrRange
	}
	aSize := s.a.Size()
	remaining := length
	pos := srcPos
	if pos < aSize {
		n := aSize - pos
		if n > remaining {
			n = remaining
		}
		if err := s.a.CopyTo(pos, dst, dstPos, n); err != nil {
			return err
		}
		dstPos += n
		pos += n
		remaining -= n
	}
	if remaining > 0 {
		if err := s.b.CopyTo(pos-aSize, dst, dstPos, remaining); err != nil {
			return err
		}
	}
	return nil
}

func (s concatSeq[T]) First() (T, error)               { return derive[T](s).First() }
func (s concatSeq[T]) Last() (T, error)                { return derive[T](s).Last() }
func (s concatSeq[T]) Slice(from, to int) Sequence[T]   { return derive[T](s).Slice(from, to) }
func (s concatSeq[T]) Concat(o Sequence[T]) Sequence[T] { return derive[T](s).Concat(o) }
func (s concatSeq[T]) With(i int, v T) Sequence[T]      { return derive[T](s).With(i, v) }
func (s concatSeq[T]) SpliceIn(i int, v T) Sequence[T]  { return derive[T](s).SpliceIn(i, v) }
func (s concatSeq[T]) SpliceOut(i int) Sequence[T]      { return derive[T](s).SpliceOut(i) }
func (s concatSeq[T]) Map(f func(T) T) Sequence[T]      { return derive[T](s).Map(f) }
func (s concatSeq[T]) WithoutFirst() Sequence[T]        { return derive[T](s).WithoutFirst() }
func (s concatSeq[T]) WithoutLast() Sequence[T]         { return derive[T](s).WithoutLast() }

// withSeq overwrites a single slot.
type withSeq[T any] struct {
	base Sequence[T]
	i    int
	v    T
}

func (s withSeq[T]) Size() int { return s.base.Size() }

func (s withSeq[T]) Get(i int) (T, error) {
	if i == s.i {
		if i < 0 || i >= s.base.Size() {
			var zero T
			return zero, ErrRange
		}
		return s.v, nil
	}
	return s.base.Get(i)
}

func (s withSeq[T]) CopyTo(srcPos int, dst []T, dstPos int, length int) error {
	if srcPos < 0 || srcPos+length > s.Size() {
		return ErrRange
	}
	if err := s.base.CopyTo(srcPos, dst, dstPos, length); err != nil {
		return err
	}
	if s.i >= srcPos && s.i < srcPos+length {
		dst[dstPos+(s.i-srcPos)] = s.v
	}
	return nil
}

func (s withSeq[T]) First() (T, error)               { return derive[T](s).First() }
func (s withSeq[T]) Last() (T, error)                { return derive[T](s).Last() }
func (s withSeq[T]) Slice(from, to int) Sequence[T]   { return derive[T](s).Slice(from, to) }
func (s withSeq[T]) Concat(o Sequence[T]) Sequence[T] { return derive[T](s).Concat(o) }
func (s withSeq[T]) With(i int, v T) Sequence[T]      { return derive[T](s).With(i, v) }
func (s withSeq[T]) SpliceIn(i int, v T) Sequence[T]  { return derive[T](s).SpliceIn(i, v) }
func (s withSeq[T]) SpliceOut(i int) Sequence[T]      { return derive[T](s).SpliceOut(i) }
func (s withSeq[T]) Map(f func(T) T) Sequence[T]      { return derive[T](s).Map(f) }
func (s withSeq[T]) WithoutFirst() Sequence[T]        { return derive[T](s).WithoutFirst() }
func (s withSeq[T]) WithoutLast() Sequence[T]         { return derive[T](s).WithoutLast() }

// mappedSeq applies f pointwise, lazily.
type mappedSeq[T any] struct {
	base Sequence[T]
	f    func(T) T
}

func (s mappedSeq[T]) Size() int { return s.base.Size() }

func (s mappedSeq[T]) Get(i int) (T, error) {
	v, err := s.base.Get(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.f(v), nil
}

func (s mappedSeq[T]) CopyTo(srcPos int, dst []T, dstPos int, length int) error {
	if srcPos < 0 || srcPos+length > s.Size() {
		return ErrRange
	}
	for i := 0; i < length; i++ {
		v, err := s.Get(srcPos + i)
		if err != nil {
			return err
		}
		dst[dstPos+i] = v
	}
	return nil
}

func (s mappedSeq[T]) First() (T, error)               { return derive[T](s).First() }
func (s mappedSeq[T]) Last() (T, error)                { return derive[T](s).Last() }
func (s mappedSeq[T]) Slice(from, to int) Sequence[T]   { return derive[T](s).Slice(from, to) }
func (s mappedSeq[T]) Concat(o Sequence[T]) Sequence[T] { return derive[T](s).Concat(o) }
func (s mappedSeq[T]) With(i int, v T) Sequence[T]      { return derive[T](s).With(i, v) }
func (s mappedSeq[T]) SpliceIn(i int, v T) Sequence[T]  { return derive[T](s).SpliceIn(i, v) }
func (s mappedSeq[T]) SpliceOut(i int) Sequence[T]      { return derive[T](s).SpliceOut(i) }
func (s mappedSeq[T]) Map(f func(T) T) Sequence[T]      { return derive[T](s).Map(f) }
func (s mappedSeq[T]) WithoutFirst() Sequence[T]        { return derive[T](s).WithoutFirst() }
func (s mappedSeq[T]) WithoutLast() Sequence[T]         { return derive[T](s).WithoutLast() }
