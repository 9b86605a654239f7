package model

import (
	"strings"
	"time"
)

// Tier is the court instance level a record was issued at
type Tier int

const (
	TierUnknown   Tier = 0 // Source did not disclose the instance
	TierOrigin    Tier = 1 // First-instance labor courts (G1)
	TierAppellate Tier = 2 // Regional appellate courts (TRT, G2)
	TierSuperior  Tier = 3 // Superior court (TST)
)

// PlacedTiers lists the tiers that take part in chain ordering, in precedence order
var PlacedTiers = []Tier{TierOrigin, TierAppellate, TierSuperior}

func (t Tier) String() string {
	switch t {
	case TierOrigin:
		return "ORIGIN"
	case TierAppellate:
		return "APPELLATE"
	case TierSuperior:
		return "SUPERIOR"
	default:
		return "UNKNOWN"
	}
}

// Rank orders tiers for chain building; unknown tiers sort last
func (t Tier) Rank() int {
	if !t.Placed() {
		return 99
	}
	return int(t)
}

// Placed reports whether the tier has a known position in the instance hierarchy
func (t Tier) Placed() bool {
	return t == TierOrigin || t == TierAppellate || t == TierSuperior
}

// MarshalText renders the tier by name so JSON and YAML stay readable
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (t *Tier) UnmarshalText(b []byte) error {
	*t = ParseTier(string(b), "")
	return nil
}

// ParseTier derives a tier from a grade label, falling back to the tribunal code.
// Unrecognised input yields TierUnknown, never an error.
func ParseTier(grade string, tribunal Tribunal) Tier {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "G1", "GRAU_1", "ORIGIN", "PRIMEIRA INSTÂNCIA", "PRIMEIRA INSTANCIA", "1":
		return TierOrigin
	case "G2", "GRAU_2", "APPELLATE", "SEGUNDA INSTÂNCIA", "SEGUNDA INSTANCIA", "2":
		return TierAppellate
	case "GS", "SUP", "TST", "SUPERIOR", "3":
		return TierSuperior
	}
	if tribunal.IsSuperior() {
		return TierSuperior
	}
	return TierUnknown
}

// Tribunal identifies the issuing court (e.g. "TRT2", "TST")
type Tribunal string

// IsSuperior reports whether the tribunal is the superior labor court
func (t Tribunal) IsSuperior() bool {
	return strings.EqualFold(strings.TrimSpace(string(t)), "TST")
}

// Normalize upper-cases and trims the court code
func (t Tribunal) Normalize() Tribunal {
	return Tribunal(strings.ToUpper(strings.TrimSpace(string(t))))
}

// Movement is one procedural event of a record
type Movement struct {
	Code int        `json:"code" yaml:"code"`
	At   *time.Time `json:"at,omitempty" yaml:"at,omitempty"` // Event timestamp when the source provides one
}

// Record is one judicial decision entry as scraped from a court source
type Record struct {
	ID               string     `json:"id"`
	RawProcessNumber string     `json:"raw_process_number"`
	Tribunal         Tribunal   `json:"tribunal"`
	Tier             Tier       `json:"tier"`
	Movements        []Movement `json:"movements"` // Chronological as emitted by the source
	JudgmentDate     *time.Time `json:"judgment_date,omitempty"`
}

// MovementCodes returns the bare movement codes in source order
func (r *Record) MovementCodes() []int {
	codes := make([]int, len(r.Movements))
	for i, m := range r.Movements {
		codes[i] = m.Code
	}
	return codes
}

// MovementsFromCodes wraps bare codes into undated movements
func MovementsFromCodes(codes ...int) []Movement {
	movements := make([]Movement, len(codes))
	for i, c := range codes {
		movements[i] = Movement{Code: c}
	}
	return movements
}
