// Package routing implements the provider assignment engine for the legal
// services marketplace: configurable, prioritized routing rules that decide
// which provider handles an incoming service request.
//
// The engine is built from small, separately testable pieces:
//
//  1. ConditionMatcher: evaluates whether a request context satisfies a
//     rule's declarative conditions
//  2. EligibilityFilter: narrows a provider snapshot list to providers that
//     satisfy a rule's target criteria
//  3. Selector: picks one provider from the eligible set using the rule's
//     strategy (round-robin, load-balanced, specialized, manual)
//  4. Engine: the orchestrator tying the above together with the rule
//     repository, round-robin cursor store and data provider
//  5. WorkloadAggregator: per-provider load counts for dashboards and the
//     load-balanced ordering
//
// A routing decision is a short-lived computation over request-scoped data.
// The only shared mutable state is the per-rule round-robin cursor, which the
// engine serializes with a per-rule lock so concurrent decisions for the same
// rule keep strict rotation order.
//
// Example:
//
//	engine := routing.NewEngine(repo, store, data, routing.EngineOptions{})
//	result, err := engine.AutoAssign(ctx, routing.RequestContext{
//		RequestType: routing.RequestTypeConsultation,
//		RequestID:   "req-123",
//		Urgency:     "urgent",
//	})
//	if err != nil {
//		// lookup or infrastructure failure
//	}
//	if !result.Success {
//		// expected no-decision outcome, see result.Reason
//	}
package routing

import "context"

// RuleFilters narrows rule listings. Zero values mean "no filter".
type RuleFilters struct {
	RequestType RequestType
	IsActive    *bool
	NameSearch  string
	Limit       int
	Offset      int
}

// RuleRepository stores routing rule definitions. Implementations must return
// rules from FindActiveByRequestType ordered by priority descending; the
// engine takes the first match without re-sorting.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule *RoutingRule) error
	UpdateRule(ctx context.Context, rule *RoutingRule) error
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (*RoutingRule, error)
	GetRuleByName(ctx context.Context, name string) (*RoutingRule, error)
	ListRules(ctx context.Context, filters RuleFilters) ([]*RoutingRule, error)
	CountRules(ctx context.Context, filters RuleFilters) (int, error)

	// FindActiveByRequestType returns active rules for the request type,
	// priority descending. Ties are broken by creation time ascending so the
	// ordering is deterministic.
	FindActiveByRequestType(ctx context.Context, t RequestType) ([]*RoutingRule, error)
}

// RoundRobinStore persists the per-rule round-robin cursor.
//
// Get returns (nil, nil) when no cursor exists yet for the rule. Update
// overwrites whatever cursor is stored.
type RoundRobinStore interface {
	GetRoundRobinState(ctx context.Context, ruleID string) (*RoundRobinState, error)
	UpdateRoundRobinState(ctx context.Context, ruleID, providerID string, index int) error
}

// DataProvider is the engine's read/write boundary to the rest of the system.
// Provider snapshots, workload counters and assignment writes all go through
// it; the engine owns none of that data.
type DataProvider interface {
	// ProvidersForRouting returns snapshots of every provider that could in
	// principle serve the request type. Eligibility filtering happens in the
	// engine, not here.
	ProvidersForRouting(ctx context.Context, t RequestType) ([]ProviderInfo, error)

	// AssignRequest records a concluded assignment: request to provider,
	// status transition, assignment timestamp.
	AssignRequest(ctx context.Context, a Assignment) error

	// UpdateRequestProvider rewrites the provider on an existing request.
	// Used by manual reassignment only.
	UpdateRequestProvider(ctx context.Context, requestID string, t RequestType, providerID string) error

	// VerifyProviderAvailable returns the provider snapshot, or
	// ErrProviderNotFound / ErrProviderUnavailable.
	VerifyProviderAvailable(ctx context.Context, providerID string) (*ProviderInfo, error)

	// ActiveProviders lists providers included in workload aggregation.
	ActiveProviders(ctx context.Context) ([]ProviderRef, error)

	// RequestCounts returns per-status counts for one provider and request type.
	RequestCounts(ctx context.Context, providerID string, t RequestType) (StatusCounts, error)

	// AverageRating returns the provider's average public review rating,
	// 0 when unrated.
	AverageRating(ctx context.Context, providerID string) (float64, error)
}
