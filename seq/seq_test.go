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


package seq

import (
	"reflect"
	"testing"
)

func TestWrapBasics(t *testing.T) {
	s := Wrap([]int{10, 20, 30})
	if s.Size() != 3 {
		t.Fatalf("size = %d, want 3", s.Size())
	}
	if v, err := s.Get(1); err != nil || v != 20 {
		t.Fatalf("Get(1) = %v, %v", v, err)
	}
	if _, err := s.Get(3); err != ErrRange {
		t.Fatalf("Get(3) err = %v, want ErrRange", err)
	}
	if f, _ := s.First(); f != 10 {
		t.Fatalf("First = %d, want 10", f)
	}
	if l, _ := s.Last(); l != 30 {
		t.Fatalf("Last = %d, want 30", l)
	}
}

func TestSliceClamps(t *testing.T) {
	s := Wrap([]int{0, 1, 2, 3, 4})
	got := ToSlice(s.Slice(2, 100))
	if !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Fatalf("slice(2,100) = %v", got)
	}
	got = ToSlice(s.Slice(-5, 2))
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("slice(-5,2) = %v", got)
	}
	got = ToSlice(s.Slice(4, 1))
	if len(got) != 0 {
		t.Fatalf("slice(4,1) = %v, want empty", got)
	}
}

func TestConcat(t *testing.T) {
	a := Wrap([]int{1, 2})
	b := Wrap([]int{3, 4, 5})
	got := ToSlice(a.Concat(b))
	if !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("concat = %v", got)
	}
	var dst [5]int
	if err := a.Concat(b).CopyTo(1, dst[:], 0, 3); err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	if !reflect.DeepEqual(dst[:3], []int{2, 3, 4}) {
		t.Fatalf("CopyTo spanning boundary = %v", dst[:3])
	}
}

func TestWith(t *testing.T) {
	s := Wrap([]int{1, 2, 3})
	got := ToSlice(s.With(1, 99))
	if !reflect.DeepEqual(got, []int{1, 99, 3}) {
		t.Fatalf("with = %v", got)
	}
	if _, err := s.With(1, 99).Get(-1); err != ErrRange {
		t.Fatalf("With then out-of-range Get should fail")
	}
}

func TestSpliceInOut(t *testing.T) {
	s := Wrap([]int{1, 2, 4})
	in := ToSlice(s.SpliceIn(2, 3))
	if !reflect.DeepEqual(in, []int{1, 2, 3, 4}) {
		t.Fatalf("splice_in = %v", in)
	}
	out := ToSlice(in2(t).SpliceOut(0))
	if !reflect.DeepEqual(out, []int{2, 3, 4}) {
		t.Fatalf("splice_out = %v", out)
	}
}

func in2(t *testing.T) Sequence[int] {
	t.Helper()
	return Wrap([]int{1, 2, 3, 4})
}

func TestMapFold(t *testing.T) {
	s := Wrap([]int{1, 2, 3})
	doubled := ToSlice(s.Map(func(v int) int { return v * 2 }))
	if !reflect.DeepEqual(doubled, []int{2, 4, 6}) {
		t.Fatalf("map = %v", doubled)
	}
	sum := Fold(s, func(acc int, v int) int { return acc + v }, 0)
	if sum != 6 {
		t.Fatalf("fold sum = %d, want 6", sum)
	}
}

func TestWithoutFirstLast(t *testing.T) {
	s := Wrap([]int{1, 2, 3})
	if got := ToSlice(s.WithoutFirst()); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("without_first = %v", got)
	}
	if got := ToSlice(s.WithoutLast()); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("without_last = %v", got)
	}
}

func TestEmpty(t *testing.T) {
	e := Empty[int]()
	if e.Size() != 0 {
		t.Fatalf("empty size = %d", e.Size())
	}
	if _, err := e.Get(0); err != ErrRange {
		t.Fatalf("empty Get(0) err = %v", err)
	}
}

func TestCopyToRangeError(t *testing.T) {
	s := Wrap([]int{1, 2, 3})
	var dst [5]int
	if err := s.CopyTo(1, dst[:], 0, 10); err != ErrRange {
		t.Fatalf("CopyTo overflow err = %v, want ErrRange", err)
	}
}
