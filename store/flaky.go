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

// Flaky wraps a Store and injects ErrRestart before delegating, driven by
// ShouldRestart. It exists to exercise RunTx's restart-and-redrive loop in
// tests: spec §5 requires that no partial in-memory state survive a
// restart, and Flaky is how the test suite forces restarts to happen at
// arbitrary points inside a real operation.
type Flaky struct {
	Inner         Store
	ShouldRestart func() bool
}

// NewFlaky wraps inner, calling shouldRestart before each operation.
func NewFlaky(inner Store, shouldRestart func() bool) *Flaky {
	return &Flaky{Inner: inner, ShouldRestart: shouldRestart}
}

func (f *Flaky) trip() bool {
	return f.ShouldRestart != nil && f.ShouldRestart()
}

// Create implements Store.
func (f *Flaky) Create(payload []byte, refs []Handle) (Handle, error) {
	if f.trip() {
		return Handle{}, ErrRestart
	}
	return f.Inner.Create(payload, refs)
}

// Read implements Store.
func (f *Flaky) Read(h Handle) ([]byte, []Handle, error) {
	if f.trip() {
		return nil, nil, ErrRestart
	}
	return f.Inner.Read(h)
}

// Write implements Store.
func (f *Flaky) Write(h Handle, payload []byte, refs []Handle) error {
	if f.trip() {
		return ErrRestart
	}
	return f.Inner.Write(h, payload, refs)
}
