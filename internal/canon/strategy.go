package canon

import (
	"fmt"
	"strings"
)

// Strategy names a canonicalization scheme for raw process numbers
type Strategy string

const (
	FullDigits     Strategy = "full_digits"     // Every digit of the number
	FixedWindow    Strategy = "fixed_window"    // Sequential+check prefix and court suffix, year dropped
	MiddleSection  Strategy = "middle_section"  // Only the middle segment
	SequentialYear Strategy = "sequential_year" // Sequential number and year, court dropped
	Fuzzy          Strategy = "fuzzy"           // Any shared core or near-identical digits
)

// CNJ unified numbering: NNNNNNN-DD.AAAA.J.TR.OOOO
const (
	cnjDigits     = 20
	seqEnd        = 7  // NNNNNNN
	checkEnd      = 9  // DD
	yearEnd       = 13 // AAAA
	justiceEnd    = 14 // J
	middleEnd     = 15
	minFullDigits = 7
)

// variant is the pure function behind a strategy
type variant struct {
	minDigits   int // Default threshold
	floor       int // Shortest digit string the slicing can handle
	approximate bool
	cores       func(digits string) []string
}

var variants = map[Strategy]variant{
	FullDigits: {
		minDigits: minFullDigits,
		floor:     1,
		cores:     func(d string) []string { return []string{d} },
	},
	FixedWindow: {
		minDigits: cnjDigits,
		floor:     justiceEnd,
		cores:     func(d string) []string { return []string{fixedWindow(d)} },
	},
	MiddleSection: {
		minDigits: cnjDigits,
		floor:     middleEnd,
		cores:     func(d string) []string { return []string{middleSection(d)} },
	},
	SequentialYear: {
		minDigits: cnjDigits,
		floor:     yearEnd,
		cores:     func(d string) []string { return []string{sequentialYear(d)} },
	},
	Fuzzy: {
		minDigits:   cnjDigits,
		floor:       middleEnd,
		approximate: true,
		cores: func(d string) []string {
			return []string{
				"fw:" + fixedWindow(d),
				"ms:" + middleSection(d),
				"sy:" + sequentialYear(d),
			}
		},
	},
}

func fixedWindow(d string) string    { return d[:checkEnd] + d[justiceEnd:] }
func middleSection(d string) string  { return d[seqEnd:middleEnd] }
func sequentialYear(d string) string { return d[:seqEnd] + d[checkEnd:yearEnd] }

// AllStrategies returns every supported strategy in a stable order
func AllStrategies() []Strategy {
	return []Strategy{FullDigits, FixedWindow, MiddleSection, SequentialYear, Fuzzy}
}

// ParseStrategy resolves a strategy by name
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := variants[s]; !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownStrategy, name, strings.Join(strategyNames(), ", "))
	}
	return s, nil
}

// ParseStrategies resolves a list of names, rejecting duplicates
func ParseStrategies(names []string) ([]Strategy, error) {
	seen := make(map[Strategy]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, err := ParseStrategy(n)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("duplicate strategy %q", s)
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// Approximate reports whether matches under s must be flagged as approximate
func (s Strategy) Approximate() bool {
	return variants[s].approximate
}

func strategyNames() []string {
	all := AllStrategies()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return names
}
