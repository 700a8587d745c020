package queryplan

import (
	"math/rand"
	"time"
)

const defaultAliasLength = 5

const aliasAlphabet = "abcdefghijklmnopqrstuvwxyz"

// AliasAllocator hands out short, collision-free table aliases for one
// compilation. It keeps its own random source so concurrent Compile calls
// (spec §5) never share mutable state.
type AliasAllocator struct {
	length  int
	used    map[string]bool
	rng     *rand.Rand
	reserve map[string]bool
}

// NewAliasAllocator returns an allocator producing aliases of length n
// (falling back to defaultAliasLength when n <= 0), reserving every
// collection name in schema so a generated alias can never shadow one.
func NewAliasAllocator(n int, schema *Schema) *AliasAllocator {
	if n <= 0 {
		n = defaultAliasLength
	}
	reserve := make(map[string]bool)
	if schema != nil {
		for name := range schema.Collections {
			reserve[name] = true
		}
	}
	return &AliasAllocator{
		length:  n,
		used:    make(map[string]bool),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		reserve: reserve,
	}
}

// Next returns a fresh alias, guaranteed unique within this allocator's
// lifetime and distinct from every reserved collection name.
func (a *AliasAllocator) Next() string {
	for {
		candidate := a.random()
		if a.used[candidate] || a.reserve[candidate] {
			continue
		}
		a.used[candidate] = true
		return candidate
	}
}

func (a *AliasAllocator) random() string {
	buf := make([]byte, a.length)
	for i := range buf {
		buf[i] = aliasAlphabet[a.rng.Intn(len(aliasAlphabet))]
	}
	return string(buf)
}
