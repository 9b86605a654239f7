package canon_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/casechain/internal/canon"
)

func cnjDigits() gopter.Gen {
	return gen.SliceOfN(20, gen.NumChar()).Map(func(r []rune) string { return string(r) })
}

// format renders 20 digits in the dotted CNJ layout
func format(d string) string {
	return d[:7] + "-" + d[7:9] + "." + d[9:13] + "." + d[13:14] + "." + d[14:16] + "." + d[16:]
}

// TestCanonicalizeDeterminism verifies the core depends only on the digits.
// Property: Canonicalize(format(d)) == Canonicalize(d) for every strategy
func TestCanonicalizeDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	c := canon.New()

	properties.Property("punctuation never changes the core", prop.ForAll(
		func(d string) bool {
			for _, s := range canon.AllStrategies() {
				a, err1 := c.Canonicalize(d, s)
				b, err2 := c.Canonicalize(format(d), s)
				if err1 != nil || err2 != nil || a != b {
					return false
				}
			}
			return true
		},
		cnjDigits(),
	))

	properties.Property("fresh canonicalizers agree", prop.ForAll(
		func(d string) bool {
			other := canon.New()
			for _, s := range canon.AllStrategies() {
				a, _ := c.Canonicalize(d, s)
				b, _ := other.Canonicalize(d, s)
				if a != b {
					return false
				}
			}
			return true
		},
		cnjDigits(),
	))

	properties.TestingRun(t)
}

// TestUnresolvableBelowThreshold verifies short numbers never produce a core.
// Property: len(digits) < 7 implies ErrUnresolvable under every strategy
func TestUnresolvableBelowThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	c := canon.New()

	properties.Property("short numbers are unresolvable", prop.ForAll(
		func(r []rune, sep string) bool {
			raw := strings.Join(strings.Split(string(r), ""), sep)
			for _, s := range canon.AllStrategies() {
				core, err := c.Canonicalize(raw, s)
				if err == nil || core != "" {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.NumChar()),
		gen.OneConstOf("", "-", ".", " "),
	))

	properties.TestingRun(t)
}

// TestLinkOrderIndependence verifies fuzzy labels survive input reversal.
// Property: Link(xs)[i] == Link(reverse(xs))[n-1-i]
func TestLinkOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	c := canon.New()

	properties.Property("labels do not depend on order", prop.ForAll(
		func(raws []string) bool {
			n := len(raws)
			rev := make([]string, n)
			for i, r := range raws {
				rev[n-1-i] = r
			}
			l1, _ := c.Link(raws, 0)
			l2, _ := c.Link(rev, 0)
			for i := range raws {
				if l1[i] != l2[n-1-i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, cnjDigits()),
	))

	properties.TestingRun(t)
}
