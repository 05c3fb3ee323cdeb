// Package slug generates short pronounceable identifiers for sharing expenses.
package slug

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	consonants = "bcdfghjklmnpqrstvwxyz"
	vowels     = "aeiou"

	// DefaultMaxAttempts is how many plain slugs are tried before adding a numeric suffix.
	DefaultMaxAttempts = 10
)

// ErrExhausted is returned when no free slug was found.
var ErrExhausted = errors.New("no unique slug available")

// Checker reports whether a slug is already taken.
type Checker interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// Generator produces slugs like "bek-oru-tima" that are unique against a Checker.
type Generator struct {
	checker     Checker
	maxAttempts int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAttempts sets the number of collisions tolerated before suffixing.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRand replaces the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// NewGenerator creates a Generator seeded from crypto/rand.
func NewGenerator(checker Checker, opts ...Option) *Generator {
	var seed [32]byte
	_, _ = crand.Read(seed[:])

	g := &Generator{
		checker:     checker,
		maxAttempts: DefaultMaxAttempts,
		rng:         rand.New(rand.NewChaCha8(seed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a slug not yet known to the checker.
// After maxAttempts collisions every candidate gets a "-NNN" suffix.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	limit := 4 * g.maxAttempts
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := g.candidate(attempt >= g.maxAttempts)
		exists, err := g.checker.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, limit)
}

func (g *Generator) candidate(suffix bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	words := []string{g.word(), g.word(), g.word()}
	s := strings.Join(words, "-")
	if suffix {
		s = fmt.Sprintf("%s-%d", s, g.rng.IntN(1000))
	}
	return s
}

// word must be called with g.mu held.
func (g *Generator) word() string {
	length := 3 + g.rng.IntN(2)
	useConsonant := g.rng.IntN(2) == 0

	var b strings.Builder
	b.Grow(length)
	for range length {
		if useConsonant {
			b.WriteByte(consonants[g.rng.IntN(len(consonants))])
		} else {
			b.WriteByte(vowels[g.rng.IntN(len(vowels))])
		}
		useConsonant = !useConsonant
	}
	return b.String()
}
