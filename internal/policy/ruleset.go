package policy

import (
	"maps"
	"slices"

	"github.com/vk/clustergrid/internal/cluster"
)

// RuleSet is a deduplicated collection of access rules keyed by the rule
// tuple.
type RuleSet struct {
	rules map[cluster.AccessRule]struct{}
}

// NewRuleSet returns a set holding the given rules.
func NewRuleSet(rules ...cluster.AccessRule) *RuleSet {
	s := &RuleSet{rules: make(map[cluster.AccessRule]struct{}, len(rules))}
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether it was new.
func (s *RuleSet) Add(r cluster.AccessRule) bool {
	if _, ok := s.rules[r]; ok {
		return false
	}
	s.rules[r] = struct{}{}
	return true
}

// Contains reports whether r is in the set.
func (s *RuleSet) Contains(r cluster.AccessRule) bool {
	_, ok := s.rules[r]
	return ok
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// Rules returns the rules in canonical order.
func (s *RuleSet) Rules() []cluster.AccessRule {
	return slices.SortedFunc(maps.Keys(s.rules), compareRules)
}

// Filter returns the rules with direction d in canonical order.
func (s *RuleSet) Filter(d cluster.Direction) []cluster.AccessRule {
	var out []cluster.AccessRule
	for _, r := range s.Rules() {
		if r.Direction == d {
			out = append(out, r)
		}
	}
	return out
}

// Union returns a new set with the rules of both sets.
func (s *RuleSet) Union(other *RuleSet) *RuleSet {
	out := NewRuleSet(s.Rules()...)
	for r := range other.rules {
		out.Add(r)
	}
	return out
}

// Equal reports whether both sets hold the same rules.
func (s *RuleSet) Equal(other *RuleSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for r := range s.rules {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

func compareRules(a, b cluster.AccessRule) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
