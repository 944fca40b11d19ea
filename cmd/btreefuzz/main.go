package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"

	"github.com/kvtrees/txmap/btree"
	"github.com/kvtrees/txmap/store"
)

// btreefuzz is a standalone property-fuzz harness: it drives a B-tree
// through random insert/remove/permutation sequences and checks
// btree.CheckInvariants after every operation, panicking on the first
// violation so the failing sequence shows up directly in the log.
func main() {
	for attempt := 0; ; attempt++ {
		fmt.Println("attempt #", attempt)
		runAttempt()
	}
}

func runAttempt() {
	ctx := context.Background()
	s := store.NewMemStore()

	order := 3 + mrand.Intn(6)
	root, err := btree.CreateEmpty(ctx, s, order, nil)
	if err != nil {
		panic(err)
	}
	tree := btree.FromRoot(order, nil, root)

	const n = 5000
	present := map[string]bool{}
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = randomKey()
	}

	for i := 0; i < n; i++ {
		k := keys[i]
		if mrand.Intn(4) != 0 || len(present) == 0 {
			v, err := s.Create([]byte(fmt.Sprintf("v%d", i)), nil)
			if err != nil {
				panic(err)
			}
			if err := tree.Put(ctx, s, k, v); err != nil {
				panic(err)
			}
			present[string(k)] = true
		} else {
			victim := pickPresent(present)
			if err := tree.Remove(ctx, s, []byte(victim)); err != nil {
				panic(err)
			}
			delete(present, victim)
		}
		if err := btree.CheckInvariants(ctx, s, tree); err != nil {
			panic(fmt.Sprintf("invariant violated after %d ops (order %d): %v", i, order, err))
		}
	}

	for k := range present {
		if _, found, err := tree.Find(ctx, s, []byte(k)); err != nil || !found {
			panic(fmt.Sprintf("lost key %q: found=%v, err=%v", k, found, err))
		}
	}
}

func pickPresent(present map[string]bool) string {
	n := mrand.Intn(len(present))
	for k := range present {
		if n == 0 {
			return k
		}
		n--
	}
	panic("unreachable")
}

func randomKey() []byte {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<40))
	if err != nil {
		panic(err)
	}
	return []byte(fmt.Sprintf("k-%012d", n.Int64()))
}
