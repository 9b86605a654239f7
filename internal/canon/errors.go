package canon

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvable marks a process number with too few digits for a strategy
	ErrUnresolvable = errors.New("unresolvable identifier")

	// ErrUnknownStrategy is returned for strategy names outside the closed set
	ErrUnknownStrategy = errors.New("unknown canonicalization strategy")
)

// UnresolvableError describes why a raw number could not be canonicalized
type UnresolvableError struct {
	Raw      string
	Strategy Strategy
	Digits   int
	Min      int
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("unresolvable identifier %q under %s: %d digits, need %d", e.Raw, e.Strategy, e.Digits, e.Min)
}

// Is lets errors.Is match ErrUnresolvable
func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}
