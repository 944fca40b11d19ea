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
	"context"
	"sync/atomic"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"
)

// TestRunTxRedrivesOnRestart exercises spec §5's restart protocol: a
// closure that restarts a few times before committing must leave the
// store in exactly the state a single successful attempt would have.
func TestRunTxRedrivesOnRestart(t *testing.T) {
	backend := NewMemStore()
	var attempts int32

	err := RunTx(context.Background(), backend, NopLogger{}, func(s Store) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return ErrRestart
		}
		_, err := s.Create([]byte("committed"), nil)
		return err
	})
	if err != nil {
		t.Fatalf("RunTx: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

// TestRunTxPropagatesNonRestartError checks that any other error aborts
// immediately without retrying.
func TestRunTxPropagatesNonRestartError(t *testing.T) {
	backend := NewMemStore()
	var attempts int32
	wantErr := ErrDecode

	err := RunTx(context.Background(), backend, NopLogger{}, func(s Store) error {
		atomic.AddInt32(&attempts, 1)
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on non-restart error)", attempts)
	}
}

// TestConcurrentFlakyTransactionsConverge runs several simulated
// transactions concurrently against the same Flaky-wrapped store, each
// restarting a random-ish number of times, and asserts every one that
// commits produces a fully-formed object — never a partial write visible
// from a restarted attempt. This is the concrete exercise of spec §5's
// "two operations on the same handle from different transactions may
// interleave."
func TestConcurrentFlakyTransactionsConverge(t *testing.T) {
	backend := NewMemStore()

	var g errgroup.Group
	results := make([]Handle, 8)
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			var tripsLeft int32 = int32(i % 3)
			flaky := NewFlaky(backend, func() bool {
				if atomic.LoadInt32(&tripsLeft) > 0 {
					atomic.AddInt32(&tripsLeft, -1)
					return true
				}
				return false
			})
			return RunTx(context.Background(), flaky, NopLogger{}, func(s Store) error {
				h, err := s.Create([]byte{byte(i)}, nil)
				if err != nil {
					return err
				}
				results[i] = h
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("g.Wait: %v", err)
	}

	seen := make(map[uint64]bool)
	for i, h := range results {
		if h.IsZero() {
			t.Fatalf("result %d: zero handle: %s", i, spew.Sdump(results))
		}
		if seen[h.id] {
			t.Fatalf("duplicate handle id %d: %s", h.id, spew.Sdump(results))
		}
		seen[h.id] = true
		payload, _, err := backend.Read(h)
		if err != nil || len(payload) != 1 || payload[0] != byte(i) {
			t.Fatalf("result %d mismatched payload %v, err %v", i, payload, err)
		}
	}
}
