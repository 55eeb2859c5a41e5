// Package models defines the request and response shapes of the HTTP API.
// Request types carry validator tags; handlers validate before touching the
// engine so malformed payloads never reach it.
package models

import (
	"time"

	"legal-router/internal/routing"
)

// AutoAssignRequest asks the engine to route one service request.
type AutoAssignRequest struct {
	RequestID       string                 `json:"request_id" validate:"required"`
	RequestType     string                 `json:"request_type" validate:"required"`
	Category        string                 `json:"category,omitempty"`
	Urgency         string                 `json:"urgency,omitempty"`
	SubscriberTier  string                 `json:"subscriber_tier,omitempty"`
	SubscriberID    string                 `json:"subscriber_id,omitempty"`
	Amount          float64                `json:"amount,omitempty" validate:"gte=0"`
	Region          string                 `json:"region,omitempty"`
	Specializations []string               `json:"specializations,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ToRequestContext converts the payload into the engine's request context.
// The request type string is carried as-is; the engine rejects unknown values.
func (r *AutoAssignRequest) ToRequestContext() routing.RequestContext {
	return routing.RequestContext{
		RequestID:       r.RequestID,
		RequestType:     routing.RequestType(r.RequestType),
		Category:        r.Category,
		Urgency:         r.Urgency,
		SubscriberTier:  r.SubscriberTier,
		SubscriberID:    r.SubscriberID,
		Amount:          r.Amount,
		Region:          r.Region,
		Specializations: r.Specializations,
		Metadata:        r.Metadata,
	}
}

// ReassignRequest moves an existing request to an explicitly chosen provider.
type ReassignRequest struct {
	RequestID   string `json:"request_id" validate:"required"`
	RequestType string `json:"request_type" validate:"required"`
	ProviderID  string `json:"provider_id" validate:"required"`
}

// TestRuleRequest dry-runs the active rule set against a synthetic context.
// No request id is needed; nothing is assigned.
type TestRuleRequest struct {
	RequestType     string                 `json:"request_type" validate:"required"`
	Category        string                 `json:"category,omitempty"`
	Urgency         string                 `json:"urgency,omitempty"`
	SubscriberTier  string                 `json:"subscriber_tier,omitempty"`
	SubscriberID    string                 `json:"subscriber_id,omitempty"`
	Amount          float64                `json:"amount,omitempty" validate:"gte=0"`
	Region          string                 `json:"region,omitempty"`
	Specializations []string               `json:"specializations,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

func (r *TestRuleRequest) ToRequestContext() routing.RequestContext {
	return routing.RequestContext{
		RequestType:     routing.RequestType(r.RequestType),
		Category:        r.Category,
		Urgency:         r.Urgency,
		SubscriberTier:  r.SubscriberTier,
		SubscriberID:    r.SubscriberID,
		Amount:          r.Amount,
		Region:          r.Region,
		Specializations: r.Specializations,
		Metadata:        r.Metadata,
	}
}

// CreateRuleRequest creates a routing rule. Request type and strategy arrive
// as strings and fail closed on unknown values inside the domain constructor.
type CreateRuleRequest struct {
	Name        string                    `json:"name" validate:"required,min=1,max=200"`
	RequestType string                    `json:"request_type" validate:"required"`
	Strategy    string                    `json:"strategy" validate:"required"`
	Priority    int                       `json:"priority" validate:"gte=0"`
	IsActive    *bool                     `json:"is_active,omitempty"`
	Conditions  routing.RoutingConditions `json:"conditions"`
	Target      routing.ProviderTarget    `json:"target"`
}

// UpdateRuleRequest partially updates a rule. Nil fields are left untouched.
type UpdateRuleRequest struct {
	Name       *string                    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Strategy   *string                    `json:"strategy,omitempty"`
	Priority   *int                       `json:"priority,omitempty" validate:"omitempty,gte=0"`
	IsActive   *bool                      `json:"is_active,omitempty"`
	Conditions *routing.RoutingConditions `json:"conditions,omitempty"`
	Target     *routing.ProviderTarget    `json:"target,omitempty"`
}

// RuleAPI is the API representation of a routing rule.
type RuleAPI struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	RequestType string                    `json:"request_type"`
	Strategy    string                    `json:"strategy"`
	Priority    int                       `json:"priority"`
	IsActive    bool                      `json:"is_active"`
	Conditions  routing.RoutingConditions `json:"conditions"`
	Target      routing.ProviderTarget    `json:"target"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

func ToRuleAPI(rule *routing.RoutingRule) *RuleAPI {
	return &RuleAPI{
		ID:          rule.ID,
		Name:        rule.Name,
		RequestType: rule.RequestType.String(),
		Strategy:    rule.Strategy.String(),
		Priority:    rule.Priority,
		IsActive:    rule.IsActive,
		Conditions:  rule.Conditions,
		Target:      rule.Target,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

// ListRulesResponse is a paginated rule listing.
type ListRulesResponse struct {
	Rules  []*RuleAPI `json:"rules"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// AssignmentResponse wraps an engine decision for the API.
type AssignmentResponse struct {
	Success      bool       `json:"success"`
	RequestID    string     `json:"request_id"`
	RequestType  string     `json:"request_type"`
	Reason       string     `json:"reason,omitempty"`
	ProviderID   string     `json:"provider_id,omitempty"`
	ProviderName string     `json:"provider_name,omitempty"`
	RuleID       string     `json:"rule_id,omitempty"`
	RuleName     string     `json:"rule_name,omitempty"`
	Strategy     string     `json:"strategy,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
}

func ToAssignmentResponse(result *routing.AssignmentResult) *AssignmentResponse {
	return &AssignmentResponse{
		Success:      result.Success,
		RequestID:    result.RequestID,
		RequestType:  result.RequestType.String(),
		Reason:       result.Reason,
		ProviderID:   result.ProviderID,
		ProviderName: result.ProviderName,
		RuleID:       result.RuleID,
		RuleName:     result.RuleName,
		Strategy:     result.Strategy.String(),
		AssignedAt:   result.AssignedAt,
	}
}

// RuleEvaluationAPI is one rule's outcome in a dry run.
type RuleEvaluationAPI struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Priority int    `json:"priority"`
	Strategy string `json:"strategy"`
	Matched  bool   `json:"matched"`
}

// TestRuleResponse reports a dry run over the active rule set.
type TestRuleResponse struct {
	MatchingRule *RuleAPI            `json:"matching_rule,omitempty"`
	Evaluated    []RuleEvaluationAPI `json:"evaluated"`
}

func ToTestRuleResponse(result *routing.RuleTestResult) *TestRuleResponse {
	resp := &TestRuleResponse{
		Evaluated: make([]RuleEvaluationAPI, 0, len(result.Evaluated)),
	}
	for _, e := range result.Evaluated {
		resp.Evaluated = append(resp.Evaluated, RuleEvaluationAPI{
			RuleID:   e.RuleID,
			RuleName: e.RuleName,
			Priority: e.Priority,
			Strategy: e.Strategy.String(),
			Matched:  e.Matched,
		})
	}
	if result.MatchingRule != nil {
		resp.MatchingRule = ToRuleAPI(result.MatchingRule)
	}
	return resp
}

// WorkloadResponse is the provider workload dashboard payload.
type WorkloadResponse struct {
	Providers   []routing.ProviderWorkload `json:"providers"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Cached      bool                       `json:"cached"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
