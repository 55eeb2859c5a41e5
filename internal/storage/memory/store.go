// Package memory provides an in-process Store implementation. It backs tests
// and single-instance deployments that run without a database configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lucsky/cuid"

	"legal-router/internal/routing"
)

type Store struct {
	mu      sync.RWMutex
	rules   map[string]*routing.RoutingRule
	cursors map[string]*routing.RoundRobinState
}

func NewStore() *Store {
	return &Store{
		rules:   make(map[string]*routing.RoutingRule),
		cursors: make(map[string]*routing.RoundRobinState),
	}
}

func (s *Store) Close() error  { return nil }
func (s *Store) Health() error { return nil }

func (s *Store) CreateRule(_ context.Context, rule *routing.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if existing.Name == rule.Name {
			return routing.ErrDuplicateRuleName
		}
	}
	if rule.ID == "" {
		rule.ID = cuid.New()
	}

	clone := *rule
	s.rules[rule.ID] = &clone
	return nil
}

func (s *Store) UpdateRule(_ context.Context, rule *routing.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return routing.ErrRuleNotFound
	}
	for id, existing := range s.rules {
		if id != rule.ID && existing.Name == rule.Name {
			return routing.ErrDuplicateRuleName
		}
	}

	clone := *rule
	s.rules[rule.ID] = &clone
	return nil
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return routing.ErrRuleNotFound
	}
	delete(s.rules, id)
	delete(s.cursors, id)
	return nil
}

func (s *Store) GetRule(_ context.Context, id string) (*routing.RoutingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, routing.ErrRuleNotFound
	}
	clone := *rule
	return &clone, nil
}

func (s *Store) GetRuleByName(_ context.Context, name string) (*routing.RoutingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.rules {
		if rule.Name == name {
			clone := *rule
			return &clone, nil
		}
	}
	return nil, routing.ErrRuleNotFound
}

func (s *Store) ListRules(_ context.Context, filters routing.RuleFilters) ([]*routing.RoutingRule, error) {
	s.mu.RLock()
	matched := s.filtered(filters)
	s.mu.RUnlock()

	sortRules(matched)

	if filters.Limit > 0 {
		if filters.Offset >= len(matched) {
			return nil, nil
		}
		end := filters.Offset + filters.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[filters.Offset:end]
	}
	return matched, nil
}

func (s *Store) CountRules(_ context.Context, filters routing.RuleFilters) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filtered(filters)), nil
}

func (s *Store) FindActiveByRequestType(_ context.Context, t routing.RequestType) ([]*routing.RoutingRule, error) {
	active := true
	s.mu.RLock()
	matched := s.filtered(routing.RuleFilters{RequestType: t, IsActive: &active})
	s.mu.RUnlock()

	sortRules(matched)
	return matched, nil
}

func (s *Store) GetRoundRobinState(_ context.Context, ruleID string) (*routing.RoundRobinState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.cursors[ruleID]
	if !ok {
		return nil, nil
	}
	clone := *state
	return &clone, nil
}

func (s *Store) UpdateRoundRobinState(_ context.Context, ruleID, providerID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[ruleID] = &routing.RoundRobinState{
		RuleID:         ruleID,
		LastProviderID: providerID,
		LastIndex:      index,
		UpdatedAt:      time.Now().UTC(),
	}
	return nil
}

// filtered returns cloned rules matching the filters. Callers must hold mu.
func (s *Store) filtered(filters routing.RuleFilters) []*routing.RoutingRule {
	var matched []*routing.RoutingRule
	for _, rule := range s.rules {
		if filters.RequestType != "" && rule.RequestType != filters.RequestType {
			continue
		}
		if filters.IsActive != nil && rule.IsActive != *filters.IsActive {
			continue
		}
		if filters.NameSearch != "" && !strings.Contains(strings.ToLower(rule.Name), strings.ToLower(filters.NameSearch)) {
			continue
		}
		clone := *rule
		matched = append(matched, &clone)
	}
	return matched
}

func sortRules(rules []*routing.RoutingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}
