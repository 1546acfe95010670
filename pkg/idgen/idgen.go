// Package idgen allocates short human-facing identifiers (account codes,
// shipment numbers) that must be unique among persisted rows.
//
// The generator keeps no state of its own. Uniqueness is decided by the
// store: Next asks whether a candidate is taken, Allocate additionally relies
// on the unique constraint at insert time and retries when the insert
// reports ErrCollision.
package idgen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var (
	// ErrCollision is returned by an InsertFunc when the identifier column
	// rejected the candidate. Allocate retries on it.
	ErrCollision = errors.New("identifier already taken")
	// ErrExhausted the attempt cap was reached without finding a free value.
	ErrExhausted = errors.New("identifier attempts exhausted")
	// ErrGenerate wraps store or entropy failures; nothing was written.
	ErrGenerate = errors.New("identifier generation failed")
)

// Scheme describes one identifier family: Prefix followed by a decimal
// number in [Min, Max].
type Scheme struct {
	Name   string
	Prefix string
	Min    int64
	Max    int64
}

var (
	// User 4-digit account code
	User = Scheme{Name: "user", Min: 1000, Max: 9999}
	// Shipment "SHP" + 6 digits
	Shipment = Scheme{Name: "shipment", Prefix: "SHP", Min: 100000, Max: 999999}
)

// Size number of distinct identifiers in the scheme
func (s Scheme) Size() int64 { return s.Max - s.Min + 1 }

// Format renders n with the scheme prefix
func (s Scheme) Format(n int64) string {
	return s.Prefix + strconv.FormatInt(n, 10)
}

// Contains reports whether id is well formed and inside the range
func (s Scheme) Contains(id string) bool {
	if !strings.HasPrefix(id, s.Prefix) {
		return false
	}
	digits := id[len(s.Prefix):]
	if len(digits) != len(strconv.FormatInt(s.Max, 10)) {
		return false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return false
	}
	return n >= s.Min && n <= s.Max
}

// Source returns a uniformly distributed integer in [0, n)
type Source func(n int64) (int64, error)

// CryptoSource draws from crypto/rand
func CryptoSource(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// ExistsFunc reports whether id is already persisted
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// InsertFunc persists a row under id. It must return an error wrapping
// ErrCollision when, and only when, the identifier itself was rejected.
type InsertFunc func(ctx context.Context, id string) error

// Generator draws candidates for one scheme
type Generator struct {
	scheme      Scheme
	source      Source
	maxAttempts int
}

// Option configures a Generator
type Option func(*Generator)

// WithSource replaces the random source
func WithSource(src Source) Option {
	return func(g *Generator) { g.source = src }
}

// WithMaxAttempts caps draws per allocation. 0 removes the cap; a saturated
// range then loops until ctx is cancelled.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) { g.maxAttempts = n }
}

// New creates a Generator. Default cap is 100 attempts.
func New(scheme Scheme, opts ...Option) *Generator {
	g := &Generator{scheme: scheme, source: CryptoSource, maxAttempts: 100}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Scheme the generator's scheme
func (g *Generator) Scheme() Scheme { return g.scheme }

// Candidate draws one value without consulting the store
func (g *Generator) Candidate() (string, error) {
	n, err := g.source(g.scheme.Size())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	return g.scheme.Format(g.scheme.Min + n), nil
}

// Next returns a candidate that was free when checked. The value is not
// reserved: two callers can receive the same one before either inserts.
// Use Allocate when the store enforces uniqueness.
func (g *Generator) Next(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; g.allowed(attempt); attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := g.Candidate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: check %s: %w", ErrGenerate, id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrExhausted, g.scheme.Name, g.maxAttempts)
}

// Allocate draws, pre-checks with exists (skipped when nil) and inserts.
// A collision at insert time, raised by a concurrent writer that took the
// same value after the check, triggers a fresh draw.
func (g *Generator) Allocate(ctx context.Context, exists ExistsFunc, insert InsertFunc) (string, error) {
	for attempt := 1; g.allowed(attempt); attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := g.Candidate()
		if err != nil {
			return "", err
		}
		if exists != nil {
			taken, err := exists(ctx, id)
			if err != nil {
				return "", fmt.Errorf("%w: check %s: %w", ErrGenerate, id, err)
			}
			if taken {
				continue
			}
		}
		err = insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrExhausted, g.scheme.Name, g.maxAttempts)
}

func (g *Generator) allowed(attempt int) bool {
	return g.maxAttempts <= 0 || attempt <= g.maxAttempts
}
