package canon

import (
	"strings"

	"github.com/ppiankov/casechain/internal/cache"
)

// Canonicalizer turns raw process numbers into matching cores.
// It holds no mutable state besides the digit memo cache, so a single
// instance can be shared across goroutines.
type Canonicalizer struct {
	minDigits map[Strategy]int
	cache     cache.Cache
}

// Option configures a Canonicalizer
type Option func(*Canonicalizer)

// WithMinDigits overrides per-strategy minimum digit counts, keyed by strategy name.
// Unknown names are ignored; values below a strategy's structural floor are raised to it.
func WithMinDigits(overrides map[string]int) Option {
	return func(c *Canonicalizer) {
		for name, min := range overrides {
			s, err := ParseStrategy(name)
			if err != nil || min <= 0 {
				continue
			}
			if floor := variants[s].floor; min < floor {
				min = floor
			}
			c.minDigits[s] = min
		}
	}
}

// WithCache sets the digit memo cache
func WithCache(c cache.Cache) Option {
	return func(cn *Canonicalizer) {
		cn.cache = c
	}
}

// New creates a canonicalizer with default thresholds and an in-memory cache
func New(opts ...Option) *Canonicalizer {
	c := &Canonicalizer{
		minDigits: make(map[Strategy]int, len(variants)),
	}
	for s, v := range variants {
		c.minDigits[s] = v.minDigits
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryCache(0, 0)
	}
	return c
}

// MinDigits returns the digit threshold in force for s
func (c *Canonicalizer) MinDigits(s Strategy) int {
	return c.minDigits[s]
}

// Digits strips every non-digit character from raw
func (c *Canonicalizer) Digits(raw string) string {
	key := cache.Key("digits", raw)
	if d, ok := c.cache.Get(key); ok {
		return d
	}
	// ASCII only: no court numbering scheme uses other digit forms
	d := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	c.cache.Set(key, d)
	return d
}

// Cores returns every matching core of raw under s. Single-core strategies
// return exactly one element; fuzzy returns one per component strategy.
func (c *Canonicalizer) Cores(raw string, s Strategy) ([]string, error) {
	v, ok := variants[s]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	digits := c.Digits(raw)
	if min := c.minDigits[s]; len(digits) < min {
		return nil, &UnresolvableError{Raw: raw, Strategy: s, Digits: len(digits), Min: min}
	}
	return v.cores(digits), nil
}

// Canonicalize returns the primary core of raw under s
func (c *Canonicalizer) Canonicalize(raw string, s Strategy) (string, error) {
	cores, err := c.Cores(raw, s)
	if err != nil {
		return "", err
	}
	return cores[0], nil
}
