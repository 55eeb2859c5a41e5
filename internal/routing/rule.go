package routing

import (
	"time"
)

// Custom rule operators. Semantics against an undefined field follow the
// operator's normal meaning: equals/contains/greater_than/less_than/in are
// false, not_equals and not_in are true when the comparison value is defined.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpIn          = "in"
	OpNotIn       = "not_in"
)

// CustomRuleOperators lists every supported custom rule operator.
func CustomRuleOperators() []string {
	return []string{OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpIn, OpNotIn}
}

// CustomRule is a single field-based predicate evaluated against the request
// context. Field is a dot path into the context, including the metadata map
// (e.g. "urgency", "metadata.case.court").
type CustomRule struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// RoutingConditions are the declarative match conditions owned by a rule.
// Every field is optional; a conditions object with all fields empty matches
// every request of the rule's request type. List fields use OR semantics
// (any one value matches), custom rules use AND semantics (all must hold).
type RoutingConditions struct {
	Categories         []string     `json:"categories,omitempty"`
	ExcludedCategories []string     `json:"excluded_categories,omitempty"`
	Urgencies          []string     `json:"urgencies,omitempty"`
	SubscriberTiers    []string     `json:"subscriber_tiers,omitempty"`
	MinAmount          *float64     `json:"min_amount,omitempty"`
	MaxAmount          *float64     `json:"max_amount,omitempty"`
	Regions            []string     `json:"regions,omitempty"`
	Specializations    []string     `json:"specializations,omitempty"`
	CustomRules        []CustomRule `json:"custom_rules,omitempty"`
}

// IsEmpty reports whether no condition field is set at all.
func (c RoutingConditions) IsEmpty() bool {
	return len(c.Categories) == 0 &&
		len(c.ExcludedCategories) == 0 &&
		len(c.Urgencies) == 0 &&
		len(c.SubscriberTiers) == 0 &&
		c.MinAmount == nil &&
		c.MaxAmount == nil &&
		len(c.Regions) == 0 &&
		len(c.Specializations) == 0 &&
		len(c.CustomRules) == 0
}

// ProviderTarget describes which providers a rule may assign to. When
// ProviderIDs is non-empty it alone determines eligibility and every other
// criterion is bypassed. An empty target accepts any active provider that is
// accepting requests.
type ProviderTarget struct {
	ProviderIDs          []string `json:"provider_ids,omitempty"`
	Specializations      []string `json:"specializations,omitempty"`
	MinRating            float64  `json:"min_rating,omitempty"`
	MaxActiveRequests    *int     `json:"max_active_requests,omitempty"`
	Regions              []string `json:"regions,omitempty"`
	ExcludedProviderIDs  []string `json:"excluded_provider_ids,omitempty"`
	RequireCertification bool     `json:"require_certification,omitempty"`
	MinExperienceYears   int      `json:"min_experience_years,omitempty"`
}

// RoutingRule is the unit of routing configuration: a named, prioritized,
// conditionally matched rule that determines how requests of one type are
// assigned. Rules are evaluated priority descending; first match wins.
type RoutingRule struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	RequestType RequestType       `json:"request_type"`
	Conditions  RoutingConditions `json:"conditions"`
	Priority    int               `json:"priority"`
	Strategy    Strategy          `json:"strategy"`
	Target      ProviderTarget    `json:"target"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewRuleInput carries the raw, unvalidated attributes for a new rule.
// RequestType and Strategy arrive as strings so transport layers can hand
// them over without pre-parsing; NewRoutingRule rejects unknown values.
type NewRuleInput struct {
	Name        string
	RequestType string
	Strategy    string
	Conditions  RoutingConditions
	Target      ProviderTarget
	Priority    int
	IsActive    bool
}

// NewRoutingRule validates the input and builds a rule. The ID is left empty
// for the repository to fill in on create. Unknown request types and
// strategies fail closed rather than defaulting.
func NewRoutingRule(in NewRuleInput) (*RoutingRule, error) {
	if err := ValidateRequired("name", in.Name); err != nil {
		return nil, err
	}

	requestType, err := ParseRequestType(in.RequestType)
	if err != nil {
		return nil, err
	}

	strategy, err := ParseStrategy(in.Strategy)
	if err != nil {
		return nil, err
	}

	if err := validateConditions(in.Conditions); err != nil {
		return nil, err
	}
	if err := ValidateNonNegative("priority", in.Priority); err != nil {
		return nil, err
	}
	if err := validateTarget(in.Target); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &RoutingRule{
		Name:        in.Name,
		RequestType: requestType,
		Conditions:  in.Conditions,
		Priority:    in.Priority,
		Strategy:    strategy,
		Target:      in.Target,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Rename changes the rule's name. Uniqueness is enforced by the repository.
func (r *RoutingRule) Rename(name string) error {
	if err := ValidateRequired("name", name); err != nil {
		return err
	}
	r.Name = name
	r.touch()
	return nil
}

// SetPriority changes the rule's evaluation priority.
func (r *RoutingRule) SetPriority(priority int) error {
	if err := ValidateNonNegative("priority", priority); err != nil {
		return err
	}
	r.Priority = priority
	r.touch()
	return nil
}

// SetStrategy changes the selection strategy, rejecting unknown values.
func (r *RoutingRule) SetStrategy(s string) error {
	strategy, err := ParseStrategy(s)
	if err != nil {
		return err
	}
	r.Strategy = strategy
	r.touch()
	return nil
}

// SetConditions replaces the rule's match conditions.
func (r *RoutingRule) SetConditions(c RoutingConditions) error {
	if err := validateConditions(c); err != nil {
		return err
	}
	r.Conditions = c
	r.touch()
	return nil
}

// SetTarget replaces the rule's provider target.
func (r *RoutingRule) SetTarget(t ProviderTarget) error {
	if err := validateTarget(t); err != nil {
		return err
	}
	r.Target = t
	r.touch()
	return nil
}

// SetActive enables or disables the rule.
func (r *RoutingRule) SetActive(active bool) {
	r.IsActive = active
	r.touch()
}

func (r *RoutingRule) touch() {
	r.UpdatedAt = time.Now().UTC()
}

// validateConditions rejects misconfigured conditions up front. A rule with
// minAmount > maxAmount would match nothing, silently; that is treated as a
// configuration bug and rejected here.
func validateConditions(c RoutingConditions) error {
	if c.MinAmount != nil && c.MaxAmount != nil && *c.MinAmount > *c.MaxAmount {
		return ValidationError{
			Field:   "conditions.min_amount",
			Message: "must not exceed max_amount",
			Value:   *c.MinAmount,
		}
	}
	for i, cr := range c.CustomRules {
		if cr.Field == "" {
			return ValidationError{
				Field:   "conditions.custom_rules",
				Message: "field is required",
				Value:   i,
			}
		}
		if err := ValidateInSet("conditions.custom_rules.operator", cr.Operator, CustomRuleOperators()); err != nil {
			return err
		}
	}
	return nil
}

func validateTarget(t ProviderTarget) error {
	if t.MinRating < 0 {
		return ValidationError{Field: "target.min_rating", Message: "must be non-negative", Value: t.MinRating}
	}
	if t.MaxActiveRequests != nil && *t.MaxActiveRequests < 0 {
		return ValidationError{Field: "target.max_active_requests", Message: "must be non-negative", Value: *t.MaxActiveRequests}
	}
	return ValidateNonNegative("target.min_experience_years", t.MinExperienceYears)
}
