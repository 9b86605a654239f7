package canon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cnjNumber = "0001234-56.2020.5.02.0001"

func TestCanonicalize_Strategies(t *testing.T) {
	c := New()

	cases := []struct {
		strategy Strategy
		want     string
	}{
		{FullDigits, "00012345620205020001"},
		{FixedWindow, "000123456020001"},
		{MiddleSection, "56202050"},
		{SequentialYear, "00012342020"},
		{Fuzzy, "fw:000123456020001"},
	}

	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			got, err := c.Canonicalize(cnjNumber, tc.strategy)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalize_PunctuationInsensitive(t *testing.T) {
	c := New()

	a, err := c.Canonicalize("0001234-56.2020.5.02.0001", FixedWindow)
	require.NoError(t, err)
	b, err := c.Canonicalize(" 00012345620205020001 ", FixedWindow)
	require.NoError(t, err)
	d, err := c.Canonicalize("0001234 56/2020 5 02 0001", FixedWindow)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, d)
}

func TestCanonicalize_FixedWindowIgnoresYear(t *testing.T) {
	c := New()

	a, err := c.Canonicalize("0001234-56.2020.5.02.0001", FixedWindow)
	require.NoError(t, err)
	b, err := c.Canonicalize("0001234-56.2021.5.02.0001", FixedWindow)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s1, _ := c.Canonicalize("0001234-56.2020.5.02.0001", SequentialYear)
	s2, _ := c.Canonicalize("0001234-56.2021.5.02.0001", SequentialYear)
	assert.NotEqual(t, s1, s2)
}

func TestCanonicalize_SequentialYearIgnoresCourt(t *testing.T) {
	c := New()

	a, err := c.Canonicalize("0001234-56.2020.5.02.0001", SequentialYear)
	require.NoError(t, err)
	b, err := c.Canonicalize("0001234-99.2020.5.15.0042", SequentialYear)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalize_Unresolvable(t *testing.T) {
	c := New()

	for _, s := range AllStrategies() {
		t.Run(string(s), func(t *testing.T) {
			core, err := c.Canonicalize("123-4", s)
			require.Error(t, err)
			assert.Empty(t, core)
			assert.True(t, errors.Is(err, ErrUnresolvable))

			var ue *UnresolvableError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, 4, ue.Digits)
			assert.Equal(t, s, ue.Strategy)
		})
	}
}

func TestCanonicalize_ShortButValidFullDigits(t *testing.T) {
	c := New()

	// A legacy 12-digit number resolves under full_digits but not under the
	// fixed-width schemes.
	core, err := c.Canonicalize("01234.2009.002", FullDigits)
	require.NoError(t, err)
	assert.Equal(t, "012342009002", core)

	_, err = c.Canonicalize("01234.2009.002", FixedWindow)
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestCanonicalize_UnknownStrategy(t *testing.T) {
	c := New()
	_, err := c.Canonicalize(cnjNumber, Strategy("soundex"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestWithMinDigits(t *testing.T) {
	c := New(WithMinDigits(map[string]int{
		"full_digits":  20,
		"fixed_window": 3, // below the structural floor
		"bogus":        9,
	}))

	assert.Equal(t, 20, c.MinDigits(FullDigits))
	assert.Equal(t, justiceEnd, c.MinDigits(FixedWindow))
	assert.Equal(t, cnjDigits, c.MinDigits(MiddleSection))

	_, err := c.Canonicalize("01234.2009.002", FullDigits)
	assert.ErrorIs(t, err, ErrUnresolvable)

	// 15 digits now clear fixed_window without panicking
	core, err := c.Canonicalize("123456789012345", FixedWindow)
	require.NoError(t, err)
	assert.Equal(t, "1234567895", core)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" Fixed_Window ")
	require.NoError(t, err)
	assert.Equal(t, FixedWindow, s)

	_, err = ParseStrategy("nope")
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = ParseStrategies([]string{"fuzzy", "fuzzy"})
	assert.Error(t, err)

	all, err := ParseStrategies([]string{"full_digits", "fuzzy"})
	require.NoError(t, err)
	assert.Equal(t, []Strategy{FullDigits, Fuzzy}, all)
}

func TestApproximate(t *testing.T) {
	assert.True(t, Fuzzy.Approximate())
	for _, s := range []Strategy{FullDigits, FixedWindow, MiddleSection, SequentialYear} {
		assert.False(t, s.Approximate(), s)
	}
}

func TestDigits_Memoised(t *testing.T) {
	c := New()
	assert.Equal(t, "00012345620205020001", c.Digits(cnjNumber))
	assert.Equal(t, "00012345620205020001", c.Digits(cnjNumber))
	assert.Equal(t, 1, c.cache.Len())
}
