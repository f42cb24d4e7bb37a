package ident

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces run tokens. A token identifies one save of a run;
// the same run saved twice gets two tokens but keeps one ID.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
//	gen := NewFixedGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
// Panics if all tokens have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// ConstantGenerator returns the same token on every call, so repeated saves
// of a scenario produce byte-identical rows.
//
// Thread-safety: ConstantGenerator is stateless and safe for concurrent use.
type ConstantGenerator struct {
	token string
}

// NewConstantGenerator creates a generator for token.
// An empty token falls back to "test-run-default".
func NewConstantGenerator(token string) ConstantGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return ConstantGenerator{token: token}
}

// Generate returns the constant token.
func (g ConstantGenerator) Generate() string {
	return g.token
}
