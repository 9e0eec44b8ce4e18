package fetch

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces correlation tokens for fetch cycles. Every
// issued fetch is stamped with one token so log lines from request,
// transform, and resolution can be tied together.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens, which keeps
// log output sortable by fetch start time.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens for deterministic tests.
// Panics when exhausted to catch test misconfiguration early.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

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
