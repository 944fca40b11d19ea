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


// Package store defines the transactional object store contract that the
// btree and linhash packages are layered over, plus two reference backends
// (MemStore, BoltStore) and the restart-driving transaction loop.
//
// The store itself is explicitly out of scope of the maps this repository
// implements: it is an external collaborator, consumed through the Store
// interface. Everything in this file is the contract side of that boundary;
// memstore.go and boltstore.go are reference implementations used by tests
// and benchmarks.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Handle is an opaque reference to a store object. Handles compare by
// referent identity, never by payload: two Handles are SameReferent iff
// they were produced by the same Create call (or denote the same live
// object across reads).
type Handle struct {
	backend string
	id      uint64
}

// SameReferent reports whether a and b denote the same store object.
func SameReferent(a, b Handle) bool {
	return a.backend == b.backend && a.id == b.id
}

// IsZero reports whether h is the zero Handle (never a valid object).
func (h Handle) IsZero() bool { return h.backend == "" && h.id == 0 }

func (h Handle) String() string { return fmt.Sprintf("%s:%d", h.backend, h.id) }

// Store is the transactional object store contract consumed by btree and
// linhash (spec §6.1). Every method may return ErrRestart, in which case
// the caller must stop work immediately and let RunTx redrive the closure
// from scratch.
type Store interface {
	// Create allocates a new store object holding payload and refs.
	Create(payload []byte, refs []Handle) (Handle, error)
	// Read returns the payload and refs last written to h.
	Read(h Handle) (payload []byte, refs []Handle, err error)
	// Write replaces the payload and refs of h.
	Write(h Handle, payload []byte, refs []Handle) error
}

// Errors surfaced by Store implementations and by the btree/linhash layers
// built on top of them (spec §7's taxonomy).
var (
	// ErrNotFound is never returned by Find; it exists for symmetry with
	// the rest of the taxonomy and for backends that want to signal a
	// missing handle explicitly (e.g. BoltStore.Read on an unknown id).
	ErrNotFound = errors.New("store: object not found")
	// ErrDecode means a payload did not match the expected encoding:
	// unknown map key, trailing bytes, wrong header kind.
	ErrDecode = errors.New("store: decode error")
	// ErrInvariantViolation means an internal self-check failed. Always a
	// bug; callers should abort rather than continue.
	ErrInvariantViolation = errors.New("store: invariant violation")
	// ErrRestart signals that the enclosing transaction must be re-run
	// with fresh reads. It never escapes RunTx.
	ErrRestart = errors.New("store: restart needed")
	// ErrStore wraps a backend failure other than restart.
	ErrStore = errors.New("store: backend error")
)

// Logger is the minimal logging surface RunTx uses to report retries. The
// zero value of NopLogger discards everything; callers that want visibility
// into restart counts can supply their own.
type Logger interface {
	Printf(format string, args ...any)
}

// NopLogger discards everything logged to it.
type NopLogger struct{}

// Printf implements Logger.
func (NopLogger) Printf(string, ...any) {}

// RunTx runs fn against backend, re-invoking it from scratch every time it
// returns ErrRestart, until it returns any other result or ctx is done.
// fn must not cache decoded state across invocations: every attempt starts
// with fresh reads, per spec §5.
func RunTx(ctx context.Context, backend Store, logger Logger, fn func(Store) error) error {
	if logger == nil {
		logger = NopLogger{}
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(backend)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRestart) {
			logger.Printf("store: transaction restarted (attempt %d)", attempt+1)
			continue
		}
		return err
	}
}
