package routing

import (
	"strings"
)

// ConditionMatcher evaluates whether a request context satisfies a rule's
// declarative conditions. It is pure: no side effects, no stored state.
//
// Clauses are checked in a fixed order and all must pass: category exclusions
// before inclusions, then urgency, subscriber tier, amount range, region,
// specializations (OR) and custom rules (AND). String comparisons are
// case-insensitive throughout. A conditions object with every field empty
// matches unconditionally.
type ConditionMatcher struct{}

// NewConditionMatcher creates a matcher.
func NewConditionMatcher() *ConditionMatcher {
	return &ConditionMatcher{}
}

// Matches reports whether the context satisfies every condition clause.
func (m *ConditionMatcher) Matches(conditions RoutingConditions, ctx RequestContext) bool {
	if len(conditions.ExcludedCategories) > 0 && containsFold(conditions.ExcludedCategories, ctx.Category) {
		return false
	}
	if len(conditions.Categories) > 0 && !containsFold(conditions.Categories, ctx.Category) {
		return false
	}
	if len(conditions.Urgencies) > 0 && !containsFold(conditions.Urgencies, ctx.Urgency) {
		return false
	}
	if len(conditions.SubscriberTiers) > 0 && !containsFold(conditions.SubscriberTiers, ctx.SubscriberTier) {
		return false
	}
	if conditions.MinAmount != nil && ctx.Amount < *conditions.MinAmount {
		return false
	}
	if conditions.MaxAmount != nil && ctx.Amount > *conditions.MaxAmount {
		return false
	}
	if len(conditions.Regions) > 0 && !containsFold(conditions.Regions, ctx.Region) {
		return false
	}
	if len(conditions.Specializations) > 0 && !intersectsFold(conditions.Specializations, ctx.Specializations) {
		return false
	}
	for _, cr := range conditions.CustomRules {
		if !m.evaluateCustomRule(cr, ctx) {
			return false
		}
	}
	return true
}

// evaluateCustomRule applies a single field-based predicate. A field that
// resolves to nothing is undefined: equals/contains/greater_than/less_than/in
// are false against it, not_equals and not_in are true.
func (m *ConditionMatcher) evaluateCustomRule(cr CustomRule, ctx RequestContext) bool {
	value, defined := resolveField(cr.Field, ctx)

	switch cr.Operator {
	case OpEquals:
		return defined && looseEqual(value, cr.Value)
	case OpNotEquals:
		if !defined {
			return true
		}
		return !looseEqual(value, cr.Value)
	case OpContains:
		return defined && strings.Contains(strings.ToLower(stringify(value)), strings.ToLower(stringify(cr.Value)))
	case OpGreaterThan:
		if !defined {
			return false
		}
		left, lok := toFloat64(value)
		right, rok := toFloat64(cr.Value)
		return lok && rok && left > right
	case OpLessThan:
		if !defined {
			return false
		}
		left, lok := toFloat64(value)
		right, rok := toFloat64(cr.Value)
		return lok && rok && left < right
	case OpIn:
		return defined && containsFold(valueList(cr.Value), stringify(value))
	case OpNotIn:
		if !defined {
			return true
		}
		return !containsFold(valueList(cr.Value), stringify(value))
	default:
		// Unknown operators never match; rule validation rejects them before
		// a rule can be stored.
		return false
	}
}

// looseEqual compares numerically when both sides are numbers, otherwise by
// case-insensitive string comparison.
func looseEqual(a, b interface{}) bool {
	if fa, aok := toFloat64(a); aok {
		if fb, bok := toFloat64(b); bok {
			return fa == fb
		}
	}
	return strings.EqualFold(stringify(a), stringify(b))
}

// resolveField walks a dot path into the request context. The first segment
// addresses a named context attribute or the metadata map; under "metadata",
// remaining segments descend through nested maps. Missing intermediate keys
// resolve to undefined.
func resolveField(path string, ctx RequestContext) (interface{}, bool) {
	segments := strings.Split(path, ".")
	head := segments[0]

	var value interface{}
	switch head {
	case "requestType", "request_type":
		value = string(ctx.RequestType)
	case "requestId", "request_id":
		value = ctx.RequestID
	case "category":
		value = ctx.Category
	case "urgency":
		value = ctx.Urgency
	case "subscriberTier", "subscriber_tier":
		value = ctx.SubscriberTier
	case "subscriberId", "subscriber_id":
		value = ctx.SubscriberID
	case "amount":
		value = ctx.Amount
	case "region":
		value = ctx.Region
	case "specializations":
		value = ctx.Specializations
	case "metadata":
		if ctx.Metadata == nil {
			return nil, false
		}
		return descend(ctx.Metadata, segments[1:])
	default:
		// Bare keys fall through to the metadata map so rules can say
		// "caseNumber" instead of "metadata.caseNumber".
		if ctx.Metadata == nil {
			return nil, false
		}
		return descend(ctx.Metadata, segments)
	}

	if len(segments) > 1 {
		// Scalar context attributes have no sub-fields.
		return nil, false
	}
	return value, true
}

func descend(m map[string]interface{}, segments []string) (interface{}, bool) {
	if len(segments) == 0 {
		return m, true
	}
	current := m
	for i, seg := range segments {
		value, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}
