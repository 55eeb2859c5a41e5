package routing

import (
	"errors"
	"testing"
	"time"
)

func validRuleInput() NewRuleInput {
	return NewRuleInput{
		Name:        "consultation default",
		RequestType: "consultation",
		Strategy:    "round_robin",
		Priority:    10,
		IsActive:    true,
	}
}

func TestNewRoutingRule(t *testing.T) {
	rule, err := NewRoutingRule(validRuleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.ID != "" {
		t.Error("ID is assigned by the repository, not the constructor")
	}
	if rule.RequestType != RequestTypeConsultation || rule.Strategy != StrategyRoundRobin {
		t.Errorf("parsed enums wrong: %+v", rule)
	}
	if rule.CreatedAt.IsZero() || !rule.CreatedAt.Equal(rule.UpdatedAt) {
		t.Error("timestamps should be set and equal on creation")
	}
}

func TestNewRoutingRuleFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewRuleInput)
		target error
	}{
		{"empty name", func(in *NewRuleInput) { in.Name = "" }, nil},
		{"unknown request type", func(in *NewRuleInput) { in.RequestType = "arbitration" }, ErrUnknownRequestType},
		{"empty request type", func(in *NewRuleInput) { in.RequestType = "" }, ErrUnknownRequestType},
		{"unknown strategy", func(in *NewRuleInput) { in.Strategy = "weighted" }, ErrUnknownStrategy},
		{"empty strategy", func(in *NewRuleInput) { in.Strategy = "" }, ErrUnknownStrategy},
		{"negative priority", func(in *NewRuleInput) { in.Priority = -1 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRuleInput()
			tt.mutate(&in)
			_, err := NewRoutingRule(in)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("got %v, want %v", err, tt.target)
			}
		})
	}
}

func TestNewRoutingRuleRejectsInvertedAmountRange(t *testing.T) {
	in := validRuleInput()
	in.Conditions = RoutingConditions{
		MinAmount: float64Ptr(500),
		MaxAmount: float64Ptr(100),
	}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("min_amount above max_amount should be rejected at creation")
	}

	// Equal bounds are a valid single-point range.
	in.Conditions = RoutingConditions{
		MinAmount: float64Ptr(100),
		MaxAmount: float64Ptr(100),
	}
	if _, err := NewRoutingRule(in); err != nil {
		t.Errorf("equal bounds should pass: %v", err)
	}
}

func TestNewRoutingRuleValidatesCustomRules(t *testing.T) {
	in := validRuleInput()
	in.Conditions = RoutingConditions{
		CustomRules: []CustomRule{{Field: "urgency", Operator: "matches", Value: "urgent"}},
	}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("unknown operator should be rejected")
	}

	in.Conditions = RoutingConditions{
		CustomRules: []CustomRule{{Field: "", Operator: OpEquals, Value: "x"}},
	}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("custom rule without a field should be rejected")
	}

	in.Conditions = RoutingConditions{
		CustomRules: []CustomRule{{Field: "metadata.case.court", Operator: OpNotIn, Value: "a,b"}},
	}
	if _, err := NewRoutingRule(in); err != nil {
		t.Errorf("valid custom rule rejected: %v", err)
	}
}

func TestNewRoutingRuleValidatesTarget(t *testing.T) {
	in := validRuleInput()
	in.Target = ProviderTarget{MinRating: -1}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("negative min_rating should be rejected")
	}

	negative := -1
	in = validRuleInput()
	in.Target = ProviderTarget{MaxActiveRequests: &negative}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("negative max_active_requests should be rejected")
	}

	in = validRuleInput()
	in.Target = ProviderTarget{MinExperienceYears: -3}
	if _, err := NewRoutingRule(in); err == nil {
		t.Error("negative min_experience_years should be rejected")
	}
}

func TestRuleSettersTouchUpdatedAt(t *testing.T) {
	rule, err := NewRoutingRule(validRuleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := rule.UpdatedAt.Add(-time.Millisecond)
	rule.UpdatedAt = before

	if err := rule.SetPriority(25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.UpdatedAt.After(before) {
		t.Error("SetPriority should advance UpdatedAt")
	}
	if rule.Priority != 25 {
		t.Errorf("priority not applied: %d", rule.Priority)
	}

	created := rule.CreatedAt
	rule.SetActive(false)
	if rule.IsActive {
		t.Error("SetActive(false) not applied")
	}
	if !rule.CreatedAt.Equal(created) {
		t.Error("setters must not move CreatedAt")
	}
}

func TestRuleSettersFailClosed(t *testing.T) {
	rule, err := NewRoutingRule(validRuleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stamp := rule.UpdatedAt

	if err := rule.SetStrategy("weighted"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("got %v, want ErrUnknownStrategy", err)
	}
	if rule.Strategy != StrategyRoundRobin {
		t.Error("rejected strategy must not be applied")
	}

	if err := rule.Rename(""); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := rule.SetPriority(-5); err == nil {
		t.Error("negative priority should be rejected")
	}
	if err := rule.SetConditions(RoutingConditions{MinAmount: float64Ptr(10), MaxAmount: float64Ptr(1)}); err == nil {
		t.Error("inverted amount range should be rejected")
	}
	if err := rule.SetTarget(ProviderTarget{MinRating: -2}); err == nil {
		t.Error("invalid target should be rejected")
	}

	if !rule.UpdatedAt.Equal(stamp) {
		t.Error("rejected mutations must not touch UpdatedAt")
	}
}

func TestConditionsIsEmpty(t *testing.T) {
	if !(RoutingConditions{}).IsEmpty() {
		t.Error("zero conditions should report empty")
	}
	if (RoutingConditions{Urgencies: []string{"urgent"}}).IsEmpty() {
		t.Error("conditions with a field set should not report empty")
	}
	if (RoutingConditions{MaxAmount: float64Ptr(10)}).IsEmpty() {
		t.Error("conditions with only max_amount should not report empty")
	}
}
