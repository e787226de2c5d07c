package authgate

import (
	"slices"
	"strings"
)

// Strategy names understood by the default gate.
const (
	StrategyBearer = "bearer"
	StrategyAPIKey = "apikey"
)

type policyKind uint8

const (
	kindUnset policyKind = iota
	kindNone
	kindStrategies
)

// Policy declares how a route authenticates callers.
// It is either None or an ordered list of strategy names. The zero value means
// "not annotated" and defers to the enclosing group or the default.
type Policy struct {
	kind       policyKind
	strategies []string
}

// None admits every caller without authentication.
func None() Policy {
	return Policy{kind: kindNone}
}

// Require admits callers accepted by any of the named strategies, tried in order.
// Require with no names admits nobody.
func Require(strategies ...string) Policy {
	return Policy{kind: kindStrategies, strategies: slices.Clone(strategies)}
}

// Inherit is the unannotated policy.
func Inherit() Policy {
	return Policy{}
}

// DefaultPolicy applies when neither route nor group is annotated.
func DefaultPolicy() Policy {
	return Require(StrategyBearer)
}

// IsSet reports whether the policy was annotated.
func (p Policy) IsSet() bool { return p.kind != kindUnset }

// IsNone reports whether the policy admits everyone.
func (p Policy) IsNone() bool { return p.kind == kindNone }

// Strategies returns a copy of the strategy names in evaluation order.
func (p Policy) Strategies() []string {
	return slices.Clone(p.strategies)
}

func (p Policy) String() string {
	switch p.kind {
	case kindNone:
		return "none"
	case kindStrategies:
		return "[" + strings.Join(p.strategies, ",") + "]"
	default:
		return "unset"
	}
}

// Resolve picks the effective policy: the handler's if annotated, else the
// group's, else fallback. The handler policy replaces the group policy, it
// never merges with it.
func Resolve(handler, group, fallback Policy) Policy {
	switch {
	case handler.IsSet():
		return handler
	case group.IsSet():
		return group
	default:
		return fallback
	}
}
