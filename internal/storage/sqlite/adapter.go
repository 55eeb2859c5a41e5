// Package sqlite implements rule and round-robin cursor storage on SQLite.
// Conditions and targets are stored as JSON columns; the schema is migrated
// on open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lucsky/cuid"
	_ "github.com/mattn/go-sqlite3"

	"legal-router/internal/routing"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Health() error {
	return a.db.Ping()
}

func (a *Adapter) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS routing_rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			request_type TEXT NOT NULL,
			conditions TEXT NOT NULL DEFAULT '{}',
			priority INTEGER NOT NULL DEFAULT 0,
			strategy TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS round_robin_state (
			rule_id TEXT PRIMARY KEY,
			last_provider_id TEXT NOT NULL,
			last_index INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_routing_rules_request_type ON routing_rules(request_type)`,
		`CREATE INDEX IF NOT EXISTS idx_routing_rules_active ON routing_rules(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_routing_rules_priority ON routing_rules(priority)`,
	}

	for _, query := range queries {
		if _, err := a.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

const ruleColumns = `id, name, request_type, conditions, priority, strategy, target, is_active, created_at, updated_at`

func (a *Adapter) CreateRule(ctx context.Context, rule *routing.RoutingRule) error {
	if rule.ID == "" {
		rule.ID = cuid.New()
	}

	conditions, target, err := marshalRule(rule)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO routing_rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, string(rule.RequestType), conditions, rule.Priority,
		string(rule.Strategy), target, rule.IsActive, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return routing.ErrDuplicateRuleName
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (a *Adapter) UpdateRule(ctx context.Context, rule *routing.RoutingRule) error {
	conditions, target, err := marshalRule(rule)
	if err != nil {
		return err
	}

	result, err := a.db.ExecContext(ctx,
		`UPDATE routing_rules
		 SET name = ?, request_type = ?, conditions = ?, priority = ?, strategy = ?,
		     target = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Name, string(rule.RequestType), conditions, rule.Priority,
		string(rule.Strategy), target, rule.IsActive, rule.UpdatedAt, rule.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return routing.ErrDuplicateRuleName
		}
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return routing.ErrRuleNotFound
	}

	return nil
}

func (a *Adapter) DeleteRule(ctx context.Context, id string) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM routing_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return routing.ErrRuleNotFound
	}

	// Stale cursors for deleted rules are useless, drop them too.
	if _, err := a.db.ExecContext(ctx, `DELETE FROM round_robin_state WHERE rule_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete round robin state: %w", err)
	}

	return nil
}

func (a *Adapter) GetRule(ctx context.Context, id string) (*routing.RoutingRule, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM routing_rules WHERE id = ?`, id)
	return scanRule(row)
}

func (a *Adapter) GetRuleByName(ctx context.Context, name string) (*routing.RoutingRule, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM routing_rules WHERE name = ?`, name)
	return scanRule(row)
}

func (a *Adapter) ListRules(ctx context.Context, filters routing.RuleFilters) ([]*routing.RoutingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules`
	where, args := buildFilters(filters)
	query += where + ` ORDER BY priority DESC, created_at ASC`

	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (a *Adapter) CountRules(ctx context.Context, filters routing.RuleFilters) (int, error) {
	query := `SELECT COUNT(*) FROM routing_rules`
	where, args := buildFilters(filters)

	var count int
	if err := a.db.QueryRowContext(ctx, query+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return count, nil
}

func (a *Adapter) FindActiveByRequestType(ctx context.Context, t routing.RequestType) ([]*routing.RoutingRule, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM routing_rules
		 WHERE request_type = ? AND is_active = 1
		 ORDER BY priority DESC, created_at ASC`, string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to query active rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (a *Adapter) GetRoundRobinState(ctx context.Context, ruleID string) (*routing.RoundRobinState, error) {
	state := &routing.RoundRobinState{RuleID: ruleID}
	err := a.db.QueryRowContext(ctx,
		`SELECT last_provider_id, last_index, updated_at FROM round_robin_state WHERE rule_id = ?`,
		ruleID).Scan(&state.LastProviderID, &state.LastIndex, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round robin state: %w", err)
	}
	return state, nil
}

func (a *Adapter) UpdateRoundRobinState(ctx context.Context, ruleID, providerID string, index int) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO round_robin_state (rule_id, last_provider_id, last_index, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(rule_id) DO UPDATE SET
		   last_provider_id = excluded.last_provider_id,
		   last_index = excluded.last_index,
		   updated_at = excluded.updated_at`,
		ruleID, providerID, index, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update round robin state: %w", err)
	}
	return nil
}

func buildFilters(filters routing.RuleFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filters.RequestType != "" {
		clauses = append(clauses, "request_type = ?")
		args = append(args, string(filters.RequestType))
	}
	if filters.IsActive != nil {
		clauses = append(clauses, "is_active = ?")
		args = append(args, *filters.IsActive)
	}
	if filters.NameSearch != "" {
		clauses = append(clauses, "name LIKE ?")
		args = append(args, "%"+filters.NameSearch+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalRule(rule *routing.RoutingRule) (string, string, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal conditions: %w", err)
	}
	target, err := json.Marshal(rule.Target)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal target: %w", err)
	}
	return string(conditions), string(target), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRuleRow(s rowScanner) (*routing.RoutingRule, error) {
	var rule routing.RoutingRule
	var requestType, strategy, conditions, target string

	err := s.Scan(&rule.ID, &rule.Name, &requestType, &conditions, &rule.Priority,
		&strategy, &target, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rule.RequestType = routing.RequestType(requestType)
	rule.Strategy = routing.Strategy(strategy)

	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(target), &rule.Target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal target: %w", err)
	}

	return &rule, nil
}

func scanRule(row *sql.Row) (*routing.RoutingRule, error) {
	rule, err := scanRuleRow(row)
	if err == sql.ErrNoRows {
		return nil, routing.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	return rule, nil
}

func scanRules(rows *sql.Rows) ([]*routing.RoutingRule, error) {
	var rules []*routing.RoutingRule
	for rows.Next() {
		rule, err := scanRuleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
