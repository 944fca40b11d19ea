package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/kvtrees/txmap/btree"
	"github.com/kvtrees/txmap/linhash"
	"github.com/kvtrees/txmap/store"
)

func main() {
	f, _ := os.Create("cpu.prof")
	g, _ := os.Create("mem.prof")
	_ = pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()
	defer func() { _ = pprof.WriteHeapProfile(g) }()

	fmt.Println("--- btree over MemStore ---")
	benchmarkBTreePut(store.NewMemStore())

	fmt.Println("--- btree over BoltStore ---")
	bs, err := store.OpenBoltStore(boltPath("btreebench"))
	if err != nil {
		panic(err)
	}
	benchmarkBTreePut(bs)
	_ = bs.Close()

	fmt.Println("--- linhash over MemStore ---")
	benchmarkLinHashPut(store.NewMemStore())

	fmt.Println("--- linhash over BoltStore ---")
	bs2, err := store.OpenBoltStore(boltPath("linhashbench"))
	if err != nil {
		panic(err)
	}
	benchmarkLinHashPut(bs2)
	_ = bs2.Close()
}

func boltPath(name string) string {
	return fmt.Sprintf("%s/%s-%d.db", os.TempDir(), name, time.Now().UnixNano())
}

// benchmarkBTreePut mirrors the teacher's benchmarkInsertInExisting shape:
// build a tree from a large key set, then measure the time to insert a
// further batch into the already-populated tree.
func benchmarkBTreePut(s store.Store) {
	ctx := context.Background()
	const n = 100000
	const toInsert = 10000
	total := n + toInsert

	keys := make([][]byte, n)
	toInsertKeys := make([][]byte, toInsert)
	for i := 0; i < total; i++ {
		key := randomBytes(32)
		if i < n {
			keys[i] = key
		} else {
			toInsertKeys[i-n] = key
		}
	}
	fmt.Println("generated key set")

	root, err := btree.CreateEmpty(ctx, s, 16, nil)
	if err != nil {
		panic(err)
	}
	tree := btree.FromRoot(16, nil, root)
	value, err := s.Create([]byte("value"), nil)
	if err != nil {
		panic(err)
	}

	for _, k := range keys {
		if err := tree.Put(ctx, s, k, value); err != nil {
			panic(err)
		}
	}

	start := time.Now()
	for _, k := range toInsertKeys {
		if err := tree.Put(ctx, s, k, value); err != nil {
			panic(err)
		}
	}
	fmt.Printf("took %v to insert %d keys into an existing %d-key tree\n", time.Since(start), toInsert, n)
}

func benchmarkLinHashPut(s store.Store) {
	ctx := context.Background()
	const n = 100000
	const toInsert = 10000
	total := n + toInsert

	keys := make([][]byte, n)
	toInsertKeys := make([][]byte, toInsert)
	for i := 0; i < total; i++ {
		key := randomBytes(32)
		if i < n {
			keys[i] = key
		} else {
			toInsertKeys[i-n] = key
		}
	}
	fmt.Println("generated key set")

	root, err := linhash.CreateEmpty(ctx, s, nil)
	if err != nil {
		panic(err)
	}
	m := linhash.FromRoot(nil, root)
	value, err := s.Create([]byte("value"), nil)
	if err != nil {
		panic(err)
	}

	for _, k := range keys {
		if err := m.Put(ctx, s, k, value); err != nil {
			panic(err)
		}
	}

	start := time.Now()
	for _, k := range toInsertKeys {
		if err := m.Put(ctx, s, k, value); err != nil {
			panic(err)
		}
	}
	fmt.Printf("took %v to insert %d keys into an existing %d-entry map\n", time.Since(start), toInsert, n)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
