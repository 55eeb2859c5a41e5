package routing

import (
	"sort"
)

// Selector picks one provider from an eligible set according to a rule's
// strategy. It is stateless; the round-robin cursor lives in the
// RoundRobinStore and is resolved to an index by the engine before Select is
// called.
type Selector struct{}

// NewSelector creates a selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns the chosen provider, or nil when no automatic selection is
// possible: the eligible set is empty, the strategy is manual, or the
// strategy is unknown.
//
// lastIndex is the position of the previously assigned provider within the
// eligible list passed here, or a negative value when there is no usable
// prior cursor. Only the round-robin strategy reads it.
func (s *Selector) Select(strategy Strategy, eligible []ProviderInfo, lastIndex int, target ProviderTarget) *ProviderInfo {
	if len(eligible) == 0 {
		return nil
	}

	switch strategy {
	case StrategyRoundRobin:
		return s.selectRoundRobin(eligible, lastIndex)
	case StrategyLoadBalanced:
		return s.selectLoadBalanced(eligible)
	case StrategySpecialized:
		return s.selectSpecialized(eligible, target)
	case StrategyManual:
		return nil
	default:
		return nil
	}
}

// selectRoundRobin starts at index 0 when there is no prior cursor and
// otherwise advances one position, wrapping at the end of the list.
func (s *Selector) selectRoundRobin(eligible []ProviderInfo, lastIndex int) *ProviderInfo {
	if lastIndex < 0 {
		return &eligible[0]
	}
	next := (lastIndex + 1) % len(eligible)
	return &eligible[next]
}

// selectLoadBalanced returns the provider with the lowest active request
// count. The sort is stable so ties keep their input order.
func (s *Selector) selectLoadBalanced(eligible []ProviderInfo) *ProviderInfo {
	sorted := copyProviders(eligible)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ActiveRequestCount < sorted[j].ActiveRequestCount
	})
	return &sorted[0]
}

// selectSpecialized prefers providers whose specializations intersect the
// target's required set, falling back to the full eligible set when none
// match, then picks the highest rated. Providers with no rating sort as
// rating 0.
func (s *Selector) selectSpecialized(eligible []ProviderInfo, target ProviderTarget) *ProviderInfo {
	pool := eligible
	if len(target.Specializations) > 0 {
		matched := make([]ProviderInfo, 0, len(eligible))
		for _, p := range eligible {
			if intersectsFold(target.Specializations, p.Specializations) {
				matched = append(matched, p)
			}
		}
		if len(matched) > 0 {
			pool = matched
		}
	}

	sorted := copyProviders(pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	return &sorted[0]
}

// ResolveCursorIndex locates the previously assigned provider within the
// current eligible list and returns its index, or -1 when the provider is no
// longer present (or there is no prior state). The eligible list changes
// between decisions as providers come and go, so the stored index must never
// be replayed against a new list directly: doing so would silently skip or
// repeat providers.
func ResolveCursorIndex(eligible []ProviderInfo, state *RoundRobinState) int {
	if state == nil || state.LastProviderID == "" {
		return -1
	}
	for i, p := range eligible {
		if p.ID == state.LastProviderID {
			return i
		}
	}
	return -1
}
