package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal-router/internal/routing"
)

func newRule(t *testing.T, name, requestType, strategy string, priority int, active bool) *routing.RoutingRule {
	t.Helper()
	rule, err := routing.NewRoutingRule(routing.NewRuleInput{
		Name:        name,
		RequestType: requestType,
		Strategy:    strategy,
		Priority:    priority,
		IsActive:    active,
	})
	if err != nil {
		t.Fatalf("building rule %q: %v", name, err)
	}
	return rule
}

func TestCreateAndGetRule(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rule := newRule(t, "consultation default", "consultation", "round_robin", 10, true)
	if err := store.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("create should assign an id")
	}

	got, err := store.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != rule.Name || got.Priority != rule.Priority {
		t.Errorf("got %+v", got)
	}

	// Stored rules are isolated from caller mutations.
	got.Name = "mutated"
	again, _ := store.GetRule(ctx, rule.ID)
	if again.Name != "consultation default" {
		t.Error("store must hand out clones")
	}

	byName, err := store.GetRuleByName(ctx, "consultation default")
	if err != nil || byName.ID != rule.ID {
		t.Errorf("GetRuleByName = (%+v, %v)", byName, err)
	}

	if _, err := store.GetRule(ctx, "missing"); !errors.Is(err, routing.ErrRuleNotFound) {
		t.Errorf("got %v, want ErrRuleNotFound", err)
	}
}

func TestDuplicateRuleName(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.CreateRule(ctx, newRule(t, "dup", "consultation", "manual", 1, true)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.CreateRule(ctx, newRule(t, "dup", "litigation", "manual", 2, true))
	if !errors.Is(err, routing.ErrDuplicateRuleName) {
		t.Errorf("got %v, want ErrDuplicateRuleName", err)
	}

	other := newRule(t, "other", "consultation", "manual", 1, true)
	if err := store.CreateRule(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := other.Rename("dup"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := store.UpdateRule(ctx, other); !errors.Is(err, routing.ErrDuplicateRuleName) {
		t.Errorf("update to a taken name: got %v, want ErrDuplicateRuleName", err)
	}
}

func TestUpdateAndDeleteRule(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rule := newRule(t, "r", "service", "load_balanced", 5, true)
	if err := store.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := rule.SetPriority(99); err != nil {
		t.Fatalf("set priority: %v", err)
	}
	if err := store.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := store.GetRule(ctx, rule.ID)
	if got.Priority != 99 {
		t.Errorf("priority = %d", got.Priority)
	}

	missing := newRule(t, "ghost", "service", "manual", 1, true)
	missing.ID = "missing"
	if err := store.UpdateRule(ctx, missing); !errors.Is(err, routing.ErrRuleNotFound) {
		t.Errorf("got %v, want ErrRuleNotFound", err)
	}

	if err := store.UpdateRoundRobinState(ctx, rule.ID, "p1", 0); err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if err := store.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetRule(ctx, rule.ID); !errors.Is(err, routing.ErrRuleNotFound) {
		t.Error("deleted rule still present")
	}
	state, err := store.GetRoundRobinState(ctx, rule.ID)
	if err != nil || state != nil {
		t.Error("deleting a rule should drop its cursor")
	}
	if err := store.DeleteRule(ctx, rule.ID); !errors.Is(err, routing.ErrRuleNotFound) {
		t.Errorf("got %v, want ErrRuleNotFound", err)
	}
}

func TestListRulesFiltersAndPagination(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	specs := []struct {
		name        string
		requestType string
		priority    int
		active      bool
	}{
		{"urgent consults", "consultation", 100, true},
		{"standard consults", "consultation", 50, true},
		{"disabled consults", "consultation", 75, false},
		{"litigation intake", "litigation", 10, true},
	}
	for _, s := range specs {
		rule := newRule(t, s.name, s.requestType, "manual", s.priority, s.active)
		if err := store.CreateRule(ctx, rule); err != nil {
			t.Fatalf("create %q: %v", s.name, err)
		}
		time.Sleep(time.Millisecond)
	}

	all, err := store.ListRules(ctx, routing.RuleFilters{})
	if err != nil || len(all) != 4 {
		t.Fatalf("list all = (%d, %v)", len(all), err)
	}

	consults, _ := store.ListRules(ctx, routing.RuleFilters{RequestType: routing.RequestTypeConsultation})
	if len(consults) != 3 {
		t.Errorf("by type = %d, want 3", len(consults))
	}
	// Priority descending.
	if consults[0].Name != "urgent consults" || consults[1].Name != "disabled consults" {
		t.Errorf("order: %s, %s", consults[0].Name, consults[1].Name)
	}

	active := true
	activeOnly, _ := store.ListRules(ctx, routing.RuleFilters{IsActive: &active})
	if len(activeOnly) != 3 {
		t.Errorf("active = %d, want 3", len(activeOnly))
	}

	search, _ := store.ListRules(ctx, routing.RuleFilters{NameSearch: "CONSULT"})
	if len(search) != 3 {
		t.Errorf("search should be case-insensitive, got %d", len(search))
	}

	page, _ := store.ListRules(ctx, routing.RuleFilters{Limit: 2, Offset: 2})
	if len(page) != 2 {
		t.Errorf("page = %d, want 2", len(page))
	}
	empty, _ := store.ListRules(ctx, routing.RuleFilters{Limit: 2, Offset: 10})
	if len(empty) != 0 {
		t.Errorf("offset past the end should be empty, got %d", len(empty))
	}

	count, _ := store.CountRules(ctx, routing.RuleFilters{RequestType: routing.RequestTypeConsultation})
	if count != 3 {
		t.Errorf("count = %d", count)
	}
}

func TestFindActiveByRequestType(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	low := newRule(t, "low", "call", "manual", 1, true)
	high := newRule(t, "high", "call", "manual", 100, true)
	off := newRule(t, "off", "call", "manual", 200, false)
	other := newRule(t, "other", "service", "manual", 300, true)
	for _, r := range []*routing.RoutingRule{low, high, off, other} {
		if err := store.CreateRule(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rules, err := store.FindActiveByRequestType(ctx, routing.RequestTypeCall)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rules) != 2 || rules[0].Name != "high" || rules[1].Name != "low" {
		t.Errorf("got %d rules, first %q", len(rules), rules[0].Name)
	}
}

func TestRoundRobinCursor(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state, err := store.GetRoundRobinState(ctx, "r1")
	if err != nil || state != nil {
		t.Fatalf("missing cursor should be (nil, nil), got (%+v, %v)", state, err)
	}

	if err := store.UpdateRoundRobinState(ctx, "r1", "p2", 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	state, err = store.GetRoundRobinState(ctx, "r1")
	if err != nil || state == nil {
		t.Fatalf("get: (%+v, %v)", state, err)
	}
	if state.LastProviderID != "p2" || state.LastIndex != 1 || state.UpdatedAt.IsZero() {
		t.Errorf("cursor = %+v", state)
	}

	if err := store.UpdateRoundRobinState(ctx, "r1", "p3", 2); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	state, _ = store.GetRoundRobinState(ctx, "r1")
	if state.LastProviderID != "p3" {
		t.Errorf("cursor not overwritten: %+v", state)
	}
}
