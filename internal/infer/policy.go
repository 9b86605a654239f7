package infer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned for unrecognised policy names
var ErrUnknownPolicy = errors.New("unknown policy")

// SettlementPolicy decides what a homologated settlement means for the worker
type SettlementPolicy string

const (
	SettlementUndetermined SettlementPolicy = "undetermined"
	SettlementWorkerWins   SettlementPolicy = "worker_wins"
)

// MissingOriginPolicy decides how chains without an origin ruling are reported
type MissingOriginPolicy string

const (
	MissingOriginUndetermined MissingOriginPolicy = "undetermined"
	MissingOriginExclude      MissingOriginPolicy = "exclude" // Left out of success-rate denominators
)

// ParseSettlementPolicy resolves a settlement policy; empty selects the default
func ParseSettlementPolicy(name string) (SettlementPolicy, error) {
	switch p := SettlementPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return SettlementUndetermined, nil
	case SettlementUndetermined, SettlementWorkerWins:
		return p, nil
	}
	return "", fmt.Errorf("%w: settlement_policy %q", ErrUnknownPolicy, name)
}

// ParseMissingOriginPolicy resolves a missing-origin policy; empty selects the default
func ParseMissingOriginPolicy(name string) (MissingOriginPolicy, error) {
	switch p := MissingOriginPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return MissingOriginUndetermined, nil
	case MissingOriginUndetermined, MissingOriginExclude:
		return p, nil
	}
	return "", fmt.Errorf("%w: missing_origin_policy %q", ErrUnknownPolicy, name)
}
