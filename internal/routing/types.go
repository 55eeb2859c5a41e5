package routing

import (
	"fmt"
	"strings"
	"time"
)

// RequestType identifies the kind of service request being routed.
// The set is closed; unknown strings are rejected by ParseRequestType.
type RequestType string

const (
	RequestTypeConsultation RequestType = "consultation"
	RequestTypeLegalOpinion RequestType = "legal_opinion"
	RequestTypeService      RequestType = "service"
	RequestTypeLitigation   RequestType = "litigation"
	RequestTypeCall         RequestType = "call"
)

// RequestTypes lists every valid request type in a stable order.
func RequestTypes() []RequestType {
	return []RequestType{
		RequestTypeConsultation,
		RequestTypeLegalOpinion,
		RequestTypeService,
		RequestTypeLitigation,
		RequestTypeCall,
	}
}

// ParseRequestType converts a string to a RequestType. Unknown values are an
// error; there is no silent fallback to a default type.
func ParseRequestType(s string) (RequestType, error) {
	switch RequestType(strings.ToLower(strings.TrimSpace(s))) {
	case RequestTypeConsultation:
		return RequestTypeConsultation, nil
	case RequestTypeLegalOpinion:
		return RequestTypeLegalOpinion, nil
	case RequestTypeService:
		return RequestTypeService, nil
	case RequestTypeLitigation:
		return RequestTypeLitigation, nil
	case RequestTypeCall:
		return RequestTypeCall, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRequestType, s)
	}
}

func (t RequestType) String() string { return string(t) }

// SLA holds the default response and resolution targets for a request type.
// These are informational; nothing in the engine enforces them.
type SLA struct {
	Response   time.Duration `json:"response"`
	Resolution time.Duration `json:"resolution"`
}

// DefaultSLA returns the default service-level targets for the request type.
func (t RequestType) DefaultSLA() SLA {
	switch t {
	case RequestTypeCall:
		return SLA{Response: 15 * time.Minute, Resolution: 4 * time.Hour}
	case RequestTypeConsultation:
		return SLA{Response: 2 * time.Hour, Resolution: 48 * time.Hour}
	case RequestTypeLegalOpinion:
		return SLA{Response: 24 * time.Hour, Resolution: 7 * 24 * time.Hour}
	case RequestTypeService:
		return SLA{Response: 4 * time.Hour, Resolution: 72 * time.Hour}
	case RequestTypeLitigation:
		return SLA{Response: 24 * time.Hour, Resolution: 30 * 24 * time.Hour}
	default:
		return SLA{}
	}
}

// Strategy identifies how a provider is selected from the eligible set.
type Strategy string

const (
	StrategyRoundRobin   Strategy = "round_robin"
	StrategyLoadBalanced Strategy = "load_balanced"
	StrategySpecialized  Strategy = "specialized"
	StrategyManual       Strategy = "manual"
)

// ParseStrategy converts a string to a Strategy. Unknown values are an error;
// there is no silent fallback to manual.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyRoundRobin:
		return StrategyRoundRobin, nil
	case StrategyLoadBalanced:
		return StrategyLoadBalanced, nil
	case StrategySpecialized:
		return StrategySpecialized, nil
	case StrategyManual:
		return StrategyManual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (s Strategy) String() string { return string(s) }

// RequestContext carries the request attributes a routing decision is made
// from. It is built per decision, never persisted, and never mutated once
// handed to the engine.
type RequestContext struct {
	RequestType     RequestType            `json:"request_type"`
	RequestID       string                 `json:"request_id"`
	Category        string                 `json:"category,omitempty"`
	Urgency         string                 `json:"urgency,omitempty"`
	SubscriberTier  string                 `json:"subscriber_tier,omitempty"`
	SubscriberID    string                 `json:"subscriber_id,omitempty"`
	Amount          float64                `json:"amount,omitempty"`
	Region          string                 `json:"region,omitempty"`
	Specializations []string               `json:"specializations,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderInfo is a read-only provider snapshot supplied by the data provider
// for one routing decision. The engine never mutates it.
type ProviderInfo struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	IsActive           bool     `json:"is_active"`
	CanAcceptRequests  bool     `json:"can_accept_requests"`
	ActiveRequestCount int      `json:"active_request_count"`
	Rating             float64  `json:"rating"`
	Specializations    []string `json:"specializations,omitempty"`
	Region             string   `json:"region,omitempty"`
	IsCertified        bool     `json:"is_certified"`
	ExperienceYears    int      `json:"experience_years"`
}

// RoundRobinState is the per-rule cursor pointing at the last provider a
// round-robin rule assigned. LastIndex is the provider's position in the
// eligible list that was current at assignment time; because that list can
// change between decisions, the next rotation target is computed by locating
// LastProviderID in the new list, not by reusing LastIndex directly.
type RoundRobinState struct {
	RuleID         string    `json:"rule_id"`
	LastProviderID string    `json:"last_provider_id"`
	LastIndex      int       `json:"last_index"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Non-assignment reasons reported in AssignmentResult.Reason. These are
// expected outcomes that callers branch on, not errors.
const (
	ReasonNoMatchingRule      = "no matching rule"
	ReasonManualAssignment    = "requires manual assignment"
	ReasonNoEligibleProviders = "no eligible providers"
	ReasonNoSelection         = "could not select provider"
)

// AssignmentResult is the outcome of an auto-assign or reassign call.
// Success false with a Reason is a first-class outcome, not a failure of the
// engine itself.
type AssignmentResult struct {
	Success      bool        `json:"success"`
	RequestID    string      `json:"request_id"`
	Reason       string      `json:"reason,omitempty"`
	ProviderID   string      `json:"provider_id,omitempty"`
	ProviderName string      `json:"provider_name,omitempty"`
	RuleID       string      `json:"rule_id,omitempty"`
	RuleName     string      `json:"rule_name,omitempty"`
	Strategy     Strategy    `json:"strategy,omitempty"`
	RequestType  RequestType `json:"request_type,omitempty"`
	AssignedAt   *time.Time  `json:"assigned_at,omitempty"`
}

// Assignment is the instruction handed to the data provider once a provider
// has been conclusively selected.
type Assignment struct {
	RequestID   string      `json:"request_id"`
	RequestType RequestType `json:"request_type"`
	ProviderID  string      `json:"provider_id"`
	AssignedAt  time.Time   `json:"assigned_at"`
}

// RuleEvaluation reports how one rule evaluated during a dry run.
type RuleEvaluation struct {
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Priority int      `json:"priority"`
	Strategy Strategy `json:"strategy"`
	Matched  bool     `json:"matched"`
}

// RuleTestResult is the outcome of a dry-run evaluation of every active rule
// against a synthetic context. MatchingRule is nil when nothing matched.
type RuleTestResult struct {
	MatchingRule *RoutingRule     `json:"matching_rule,omitempty"`
	Evaluated    []RuleEvaluation `json:"evaluated_rules"`
}

// StatusCounts are per-provider request counts for a single request type,
// as reported by the data provider.
type StatusCounts struct {
	Pending        int `json:"pending"`
	Assigned       int `json:"assigned"`
	InProgress     int `json:"in_progress"`
	QuoteSent      int `json:"quote_sent"`
	CompletedToday int `json:"completed_today"`
}

/// Active returns the number of requests counted as active load: everything
// not yet completed or closed.
func (c StatusCounts) Active() int {
	return c.Pending + c.Assigned + c.InProgress + c.QuoteSent
}

// ProviderWorkload is the aggregated load picture for one provider across all
// request types.
type ProviderWorkload struct {
	ProviderID         string  `json:"provider_id"`
	ProviderName       string  `json:"provider_name"`
	ActiveRequests     int     `json:"active_requests"`
	PendingRequests    int     `json:"pending_requests"`
	InProgressRequests int     `json:"in_progress_requests"`
	CompletedToday     int     `json:"completed_today"`
	AverageRating      float64 `json:"average_rating"`
}

// ProviderRef identifies an active provider for workload aggregation.
type ProviderRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
