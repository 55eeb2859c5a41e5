package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"legal-router/internal/models"
	"legal-router/internal/routing"
)

// Rule management handlers

// ListRules returns rules matching the query filters, priority descending.
// Supported query parameters: request_type, is_active, search, limit, offset.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	filters, err := parseRuleFilters(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rules, err := h.rules.ListRules(r.Context(), filters)
	if err != nil {
		h.writeError(w, err)
		return
	}

	total, err := h.rules.CountRules(r.Context(), filters)
	if err != nil {
		h.writeError(w, err)
		return
	}

	apiRules := make([]*models.RuleAPI, 0, len(rules))
	for _, rule := range rules {
		apiRules = append(apiRules, models.ToRuleAPI(rule))
	}

	h.writeJSON(w, http.StatusOK, models.ListRulesResponse{
		Rules:  apiRules,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// GetRule returns a single rule by id.
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.GetRule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToRuleAPI(rule))
}

// CreateRule creates a routing rule. Unknown request types and strategies are
// rejected, as is a minimum amount above the maximum.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRuleRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule, err := routing.NewRoutingRule(routing.NewRuleInput{
		Name:        req.Name,
		RequestType: req.RequestType,
		Strategy:    req.Strategy,
		Conditions:  req.Conditions,
		Target:      req.Target,
		Priority:    req.Priority,
		IsActive:    isActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.rules.CreateRule(r.Context(), rule); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, models.ToRuleAPI(rule))
}

// UpdateRule applies a partial update to an existing rule. Omitted fields are
// left untouched; the request type of a rule cannot change.
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRuleRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	rule, err := h.rules.GetRule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.Name != nil {
		if err := rule.Rename(*req.Name); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Strategy != nil {
		if err := rule.SetStrategy(*req.Strategy); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Priority != nil {
		if err := rule.SetPriority(*req.Priority); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Conditions != nil {
		if err := rule.SetConditions(*req.Conditions); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Target != nil {
		if err := rule.SetTarget(*req.Target); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.IsActive != nil {
		rule.SetActive(*req.IsActive)
	}

	if err := h.rules.UpdateRule(r.Context(), rule); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToRuleAPI(rule))
}

// DeleteRule removes a rule and its round-robin cursor.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.DeleteRule(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleRule flips a rule's active flag.
func (h *Handlers) ToggleRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.GetRule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	rule.SetActive(!rule.IsActive)

	if err := h.rules.UpdateRule(r.Context(), rule); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToRuleAPI(rule))
}

// TestRule dry-runs the active rule set against a synthetic context. Nothing
// is selected or assigned.
func (h *Handlers) TestRule(w http.ResponseWriter, r *http.Request) {
	var req models.TestRuleRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.TestRule(r.Context(), req.ToRequestContext())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToTestRuleResponse(result))
}

func parseRuleFilters(r *http.Request) (routing.RuleFilters, error) {
	q := r.URL.Query()
	filters := routing.RuleFilters{
		NameSearch: q.Get("search"),
	}

	if s := q.Get("request_type"); s != "" {
		t, err := routing.ParseRequestType(s)
		if err != nil {
			return filters, err
		}
		filters.RequestType = t
	}
	if s := q.Get("is_active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			return filters, routing.ValidationError{Field: "is_active", Message: "must be a boolean", Value: s}
		}
		filters.IsActive = &active
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return filters, routing.ValidationError{Field: "limit", Message: "must be a non-negative integer", Value: s}
		}
		filters.Limit = limit
	}
	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return filters, routing.ValidationError{Field: "offset", Message: "must be a non-negative integer", Value: s}
		}
		filters.Offset = offset
	}

	return filters, nil
}
