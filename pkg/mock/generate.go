package mock

import (
	"hash/fnv"
	mathrand "math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// DefaultString is the value generated for String and custom scalar fields.
const DefaultString = "Hello World"

// DefaultListLength is the number of items generated for list fields.
const DefaultListLength = 2

// generator produces default values. A nil rng uses the global math/rand/v2
// source and crypto-random UUIDs; a seeded rng makes output reproducible.
type generator struct {
	mu     sync.Mutex
	rng    *mathrand.Rand
	seed   uint64
	seeded bool
}

func newGenerator(seed *uint64) *generator {
	g := &generator{}
	if seed != nil {
		g.seed = *seed
		g.seeded = true
		g.rng = mathrand.New(mathrand.NewPCG(*seed, *seed))
	}
	return g
}

// derive returns a generator for one field. Seeded generators derive a source from
// the seed and parts, so the values of a field do not depend on the order in which
// sibling fields are resolved.
func (g *generator) derive(parts ...string) *generator {
	if !g.seeded {
		return g
	}
	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	seed := g.seed ^ h.Sum64()
	return newGenerator(&seed)
}

func (g *generator) intN(n int) int {
	if n <= 0 {
		return 0
	}
	if g.rng == nil {
		return mathrand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *generator) float64() float64 {
	if g.rng == nil {
		return mathrand.Float64()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Int returns an integer in [-100, 100].
func (g *generator) Int() int {
	return g.intN(201) - 100
}

// Float returns a float in [-100, 100).
func (g *generator) Float() float64 {
	return g.float64()*200 - 100
}

// Boolean returns a random boolean.
func (g *generator) Boolean() bool {
	return g.intN(2) == 1
}

// ID returns a version 4 UUID string.
func (g *generator) ID() string {
	if g.rng == nil {
		return uuid.NewString()
	}
	id, err := uuid.NewRandomFromReader(rngReader{g})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Pick returns a random index into a slice of length n.
func (g *generator) Pick(n int) int {
	return g.intN(n)
}

// rngReader feeds the seeded source to uuid.NewRandomFromReader.
type rngReader struct {
	g *generator
}

func (r rngReader) Read(p []byte) (int, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	for i := range p {
		p[i] = byte(r.g.rng.IntN(256))
	}
	return len(p), nil
}
