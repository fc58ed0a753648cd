// Package proptest runs seeded property-based tests. A property is checked
// against many random inputs; on failure the seed is logged so the run can
// be reproduced with PROPTEST_SEED.
package proptest

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// Generator wraps a seeded random source.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a Generator. A zero seed means time-based.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed behind this generator.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Intn returns a random int in [0, n).
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// IntRange returns a random int in [min, max].
func (g *Generator) IntRange(min, max int) int {
	return min + g.rng.Intn(max-min+1)
}

// Bool returns a random boolean.
func (g *Generator) Bool() bool {
	return g.rng.Intn(2) == 1
}

const identFirst = "abcdefghijklmnopqrstuvwxyz"
const identRest = identFirst + "0123456789_"

// Ident returns a random lowercase identifier of length [1, maxLen],
// starting with a letter. Suitable as a table or column name.
func (g *Generator) Ident(maxLen int) string {
	n := g.IntRange(1, maxLen)
	buf := make([]byte, n)
	buf[0] = identFirst[g.Intn(len(identFirst))]
	for i := 1; i < n; i++ {
		buf[i] = identRest[g.Intn(len(identRest))]
	}
	return string(buf)
}

// Idents returns n distinct identifiers.
func (g *Generator) Idents(n, maxLen int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		id := g.Ident(maxLen)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// OneOf returns a random element from values.
func OneOf[T any](g *Generator, values ...T) T {
	if len(values) == 0 {
		panic("proptest: OneOf called with no values")
	}
	return values[g.Intn(len(values))]
}

// Config controls property test behavior.
type Config struct {
	// NumTrials is the number of iterations. Default: 100.
	NumTrials int

	// Seed fixes the random seed. Zero means time-based, overridable via
	// the PROPTEST_SEED environment variable.
	Seed int64
}

func effectiveSeed(cfg Config) int64 {
	if envSeed := os.Getenv("PROPTEST_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

// Check runs a property NumTrials times with random inputs. On failure it
// logs the seed for reproduction.
func Check(t *testing.T, name string, cfg Config, prop func(g *Generator) bool) {
	t.Helper()

	if cfg.NumTrials <= 0 {
		cfg.NumTrials = 100
	}

	seed := effectiveSeed(cfg)
	g := New(seed)

	for i := 0; i < cfg.NumTrials; i++ {
		if !prop(g) {
			t.Errorf("proptest %q failed on trial %d (seed=%d, use PROPTEST_SEED=%d to reproduce)",
				name, i+1, seed, seed)
			return
		}
	}
}

// QuickCheck runs a property with the default configuration.
func QuickCheck(t *testing.T, name string, prop func(g *Generator) bool) {
	t.Helper()
	Check(t, name, Config{}, prop)
}
