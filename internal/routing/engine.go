package routing

import (
	"context"
	"sync"
	"time"

	"legal-router/internal/common/errors"
	"legal-router/internal/common/logging"
)

// RuleLock is a held per-rule lock. Release is safe to call more than once.
type RuleLock interface {
	Release(ctx context.Context) error
}

// RuleLocker serializes the round-robin cursor read-modify-write per rule id.
// The default is an in-process keyed mutex; multi-instance deployments plug
// in a distributed implementation.
type RuleLocker interface {
	AcquireRuleLock(ctx context.Context, ruleID string) (RuleLock, error)
}

// EngineOptions carries optional engine collaborators.
type EngineOptions struct {
	// Locker guards round-robin cursor updates. Defaults to an in-process
	// keyed mutex, which is only safe for single-instance deployments.
	Locker RuleLocker

	// Logger defaults to the global logger.
	Logger logging.Logger
}

// Engine is the auto-assign orchestrator. Each call is a short-lived,
// stateless computation: build a context, find the first matching active
// rule, narrow the provider snapshots, run the rule's strategy, persist the
// round-robin cursor when applicable, and instruct the data provider to
// record the assignment.
type Engine struct {
	rules    RuleRepository
	cursors  RoundRobinStore
	data     DataProvider
	matcher  *ConditionMatcher
	filter   *EligibilityFilter
	selector *Selector
	workload *WorkloadAggregator
	locker   RuleLocker
	logger   logging.Logger
}

// NewEngine creates an engine over the given repository, cursor store and
// data provider.
func NewEngine(rules RuleRepository, cursors RoundRobinStore, data DataProvider, opts EngineOptions) *Engine {
	locker := opts.Locker
	if locker == nil {
		locker = newKeyedMutex()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "routing-engine"})
	}
	return &Engine{
		rules:    rules,
		cursors:  cursors,
		data:     data,
		matcher:  NewConditionMatcher(),
		filter:   NewEligibilityFilter(),
		selector: NewSelector(),
		workload: NewWorkloadAggregator(data),
		locker:   locker,
		logger:   logger,
	}
}

// AutoAssign runs one routing decision for the request described by reqCtx.
//
// A nil error with Success=false is an expected no-decision outcome (no
// matching rule, manual-only rule, no eligible providers, strategy declined);
// the Reason field says which. Errors are reserved for lookup and
// infrastructure failures. No assignment is ever recorded unless a provider
// was conclusively selected.
func (e *Engine) AutoAssign(ctx context.Context, reqCtx RequestContext) (*AssignmentResult, error) {
	if err := ValidateRequired("request_id", reqCtx.RequestID); err != nil {
		return nil, err
	}
	if _, err := ParseRequestType(string(reqCtx.RequestType)); err != nil {
		return nil, err
	}

	rules, err := e.rules.FindActiveByRequestType(ctx, reqCtx.RequestType)
	if err != nil {
		return nil, errors.InternalError("failed to load routing rules", err)
	}

	rule := e.firstMatch(rules, reqCtx)
	if rule == nil {
		e.logger.Debug("no matching rule",
			logging.String("request_id", reqCtx.RequestID),
			logging.String("request_type", reqCtx.RequestType.String()))
		return &AssignmentResult{
			RequestID:   reqCtx.RequestID,
			RequestType: reqCtx.RequestType,
			Reason:      ReasonNoMatchingRule,
		}, nil
	}

	if rule.Strategy == StrategyManual {
		// The rule identity is reported so operators can see which rule
		// routed the request into the manual queue.
		return &AssignmentResult{
			RequestID:   reqCtx.RequestID,
			RequestType: reqCtx.RequestType,
			Reason:      ReasonManualAssignment,
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Strategy:    rule.Strategy,
		}, nil
	}

	providers, err := e.data.ProvidersForRouting(ctx, reqCtx.RequestType)
	if err != nil {
		return nil, errors.InternalError("failed to load provider snapshots", err)
	}

	eligible := e.filter.Eligible(rule.Target, providers)
	if len(eligible) == 0 {
		return &AssignmentResult{
			RequestID:   reqCtx.RequestID,
			RequestType: reqCtx.RequestType,
			Reason:      ReasonNoEligibleProviders,
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Strategy:    rule.Strategy,
		}, nil
	}

	lastIndex := -1
	if rule.Strategy == StrategyRoundRobin {
		lock, err := e.locker.AcquireRuleLock(ctx, rule.ID)
		if err != nil {
			return nil, errors.InternalError("failed to acquire rule lock", err)
		}
		defer lock.Release(ctx)

		state, err := e.cursors.GetRoundRobinState(ctx, rule.ID)
		if err != nil {
			return nil, errors.InternalError("failed to load round-robin state", err)
		}
		// Stale cursors (provider dropped out of the eligible set) resolve
		// to -1 and the rotation restarts at the head of the list.
		lastIndex = ResolveCursorIndex(eligible, state)
	}

	selected := e.selector.Select(rule.Strategy, eligible, lastIndex, rule.Target)
	if selected == nil {
		return &AssignmentResult{
			RequestID:   reqCtx.RequestID,
			RequestType: reqCtx.RequestType,
			Reason:      ReasonNoSelection,
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Strategy:    rule.Strategy,
		}, nil
	}

	if rule.Strategy == StrategyRoundRobin {
		index := indexOfProvider(eligible, selected.ID)
		if err := e.cursors.UpdateRoundRobinState(ctx, rule.ID, selected.ID, index); err != nil {
			return nil, errors.InternalError("failed to persist round-robin state", err)
		}
	}

	assignedAt := time.Now().UTC()
	assignment := Assignment{
		RequestID:   reqCtx.RequestID,
		RequestType: reqCtx.RequestType,
		ProviderID:  selected.ID,
		AssignedAt:  assignedAt,
	}
	if err := e.data.AssignRequest(ctx, assignment); err != nil {
		return nil, errors.InternalError("failed to record assignment", err)
	}

	e.logger.Info("request assigned",
		logging.String("request_id", reqCtx.RequestID),
		logging.String("provider_id", selected.ID),
		logging.String("rule_id", rule.ID),
		logging.String("strategy", rule.Strategy.String()))

	return &AssignmentResult{
		Success:      true,
		RequestID:    reqCtx.RequestID,
		RequestType:  reqCtx.RequestType,
		ProviderID:   selected.ID,
		ProviderName: selected.Name,
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		Strategy:     rule.Strategy,
		AssignedAt:   &assignedAt,
	}, nil
}

// Reassign is the manual override: it moves a request to an explicitly
// chosen provider, bypassing rule evaluation entirely. The target provider
// must exist, be active and accept requests.
func (e *Engine) Reassign(ctx context.Context, requestID string, t RequestType, providerID string) (*AssignmentResult, error) {
	if err := ValidateRequired("request_id", requestID); err != nil {
		return nil, err
	}
	if err := ValidateRequired("provider_id", providerID); err != nil {
		return nil, err
	}
	if _, err := ParseRequestType(string(t)); err != nil {
		return nil, err
	}

	provider, err := e.data.VerifyProviderAvailable(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if err := e.data.UpdateRequestProvider(ctx, requestID, t, providerID); err != nil {
		return nil, err
	}

	assignedAt := time.Now().UTC()
	e.logger.Info("request reassigned",
		logging.String("request_id", requestID),
		logging.String("provider_id", providerID))

	return &AssignmentResult{
		Success:      true,
		RequestID:    requestID,
		RequestType:  t,
		ProviderID:   provider.ID,
		ProviderName: provider.Name,
		Strategy:     StrategyManual,
		AssignedAt:   &assignedAt,
	}, nil
}

// TestRule dry-runs every active rule for the synthetic context and reports
// which matched. Nothing is selected, persisted or assigned; with an
// unchanged rule set, identical input yields an identical result.
func (e *Engine) TestRule(ctx context.Context, reqCtx RequestContext) (*RuleTestResult, error) {
	if _, err := ParseRequestType(string(reqCtx.RequestType)); err != nil {
		return nil, err
	}

	rules, err := e.rules.FindActiveByRequestType(ctx, reqCtx.RequestType)
	if err != nil {
		return nil, errors.InternalError("failed to load routing rules", err)
	}

	result := &RuleTestResult{Evaluated: make([]RuleEvaluation, 0, len(rules))}
	for _, rule := range rules {
		matched := rule.IsActive && e.matcher.Matches(rule.Conditions, reqCtx)
		result.Evaluated = append(result.Evaluated, RuleEvaluation{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Priority: rule.Priority,
			Strategy: rule.Strategy,
			Matched:  matched,
		})
		if matched && result.MatchingRule == nil {
			result.MatchingRule = rule
		}
	}
	return result, nil
}

// ProviderWorkloads returns the aggregated per-provider load picture,
// least loaded first.
func (e *Engine) ProviderWorkloads(ctx context.Context) ([]ProviderWorkload, error) {
	return e.workload.ProviderWorkloads(ctx)
}

// firstMatch scans priority-descending rules for the first whose conditions
// hold. The repository already orders and filters to active rules; the
// IsActive check here is kept so hand-built rule slices in tests behave the
// same way.
func (e *Engine) firstMatch(rules []*RoutingRule, reqCtx RequestContext) *RoutingRule {
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if e.matcher.Matches(rule.Conditions, reqCtx) {
			return rule
		}
	}
	return nil
}

func indexOfProvider(providers []ProviderInfo, id string) int {
	for i, p := range providers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// keyedMutex is the single-instance RuleLocker: one mutex per rule id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) AcquireRuleLock(_ context.Context, ruleID string) (RuleLock, error) {
	k.mu.Lock()
	m, ok := k.locks[ruleID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[ruleID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return &mutexLock{m: m}, nil
}

type mutexLock struct {
	m    *sync.Mutex
	once sync.Once
}

func (l *mutexLock) Release(context.Context) error {
	l.once.Do(l.m.Unlock)
	return nil
}
