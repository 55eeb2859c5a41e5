package handlers

import (
	"net/http"

	"legal-router/internal/models"
	"legal-router/internal/routing"
)

// AutoAssign runs one routing decision for the posted request. A decision
// that concludes without an assignment (no matching rule, manual-only rule,
// no eligible providers) is still a 200; the payload carries the reason.
func (h *Handlers) AutoAssign(w http.ResponseWriter, r *http.Request) {
	var req models.AutoAssignRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.AutoAssign(r.Context(), req.ToRequestContext())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToAssignmentResponse(result))
}

// Reassign moves a request to an explicitly chosen provider, bypassing rule
// evaluation. The target must exist and be accepting requests.
func (h *Handlers) Reassign(w http.ResponseWriter, r *http.Request) {
	var req models.ReassignRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.Reassign(r.Context(), req.RequestID, routing.RequestType(req.RequestType), req.ProviderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.ToAssignmentResponse(result))
}

// Workload returns the per-provider load dashboard, least loaded first.
// Pass ?fresh=1 to bypass the cached snapshot.
func (h *Handlers) Workload(w http.ResponseWriter, r *http.Request) {
	get := h.workloads.Get
	if r.URL.Query().Get("fresh") == "1" {
		get = h.workloads.Fresh
	}

	providers, generatedAt, cached, err := get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.WorkloadResponse{
		Providers:   providers,
		GeneratedAt: generatedAt,
		Cached:      cached,
	})
}
