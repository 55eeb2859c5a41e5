// Package data provides an in-process implementation of the engine's
// DataProvider boundary. Production deployments are expected to plug in an
// adapter over the marketplace backend; this implementation carries seeded
// provider and request state for tests and standalone runs.
package data

import (
	"context"
	"sync"
	"time"

	"legal-router/internal/routing"
)

// RequestRecord tracks one service request's assignment state.
type RequestRecord struct {
	RequestID   string
	RequestType routing.RequestType
	ProviderID  string
	Status      string
	AssignedAt  *time.Time
}

// MemoryProvider is a thread-safe in-memory DataProvider.
type MemoryProvider struct {
	mu        sync.RWMutex
	providers map[string]routing.ProviderInfo
	order     []string
	requests  map[string]*RequestRecord
	ratings   map[string]float64
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		providers: make(map[string]routing.ProviderInfo),
		requests:  make(map[string]*RequestRecord),
		ratings:   make(map[string]float64),
	}
}

// AddProvider registers or replaces a provider snapshot.
func (m *MemoryProvider) AddProvider(p routing.ProviderInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.providers[p.ID] = p
}

// AddRequest registers a request awaiting assignment.
func (m *MemoryProvider) AddRequest(requestID string, t routing.RequestType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[requestID] = &RequestRecord{
		RequestID:   requestID,
		RequestType: t,
		Status:      "pending",
	}
}

// SetRating sets a provider's average review rating.
func (m *MemoryProvider) SetRating(providerID string, rating float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[providerID] = rating
}

// Request returns a copy of the request record, or nil.
func (m *MemoryProvider) Request(requestID string) *RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.requests[requestID]
	if !ok {
		return nil
	}
	clone := *record
	return &clone
}

func (m *MemoryProvider) ProvidersForRouting(_ context.Context, _ routing.RequestType) ([]routing.ProviderInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Insertion order keeps round-robin rotation deterministic.
	providers := make([]routing.ProviderInfo, 0, len(m.order))
	for _, id := range m.order {
		providers = append(providers, m.providers[id])
	}
	return providers, nil
}

func (m *MemoryProvider) AssignRequest(_ context.Context, a routing.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.requests[a.RequestID]
	if !ok {
		return routing.ErrRequestNotFound
	}

	assignedAt := a.AssignedAt
	record.ProviderID = a.ProviderID
	record.Status = "assigned"
	record.AssignedAt = &assignedAt

	if p, ok := m.providers[a.ProviderID]; ok {
		p.ActiveRequestCount++
		m.providers[a.ProviderID] = p
	}
	return nil
}

func (m *MemoryProvider) UpdateRequestProvider(_ context.Context, requestID string, _ routing.RequestType, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.requests[requestID]
	if !ok {
		return routing.ErrRequestNotFound
	}

	record.ProviderID = providerID
	record.Status = "assigned"
	now := time.Now().UTC()
	record.AssignedAt = &now
	return nil
}

func (m *MemoryProvider) VerifyProviderAvailable(_ context.Context, providerID string) (*routing.ProviderInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.providers[providerID]
	if !ok {
		return nil, routing.ErrProviderNotFound
	}
	if !p.IsActive || !p.CanAcceptRequests {
		return nil, routing.ErrProviderUnavailable
	}
	clone := p
	return &clone, nil
}

func (m *MemoryProvider) ActiveProviders(_ context.Context) ([]routing.ProviderRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := make([]routing.ProviderRef, 0, len(m.order))
	for _, id := range m.order {
		p := m.providers[id]
		if !p.IsActive {
			continue
		}
		refs = append(refs, routing.ProviderRef{ID: p.ID, Name: p.Name})
	}
	return refs, nil
}

func (m *MemoryProvider) RequestCounts(_ context.Context, providerID string, t routing.RequestType) (routing.StatusCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var counts routing.StatusCounts
	for _, record := range m.requests {
		if record.ProviderID != providerID || record.RequestType != t {
			continue
		}
		switch record.Status {
		case "pending":
			counts.Pending++
		case "assigned":
			counts.Assigned++
		case "in_progress":
			counts.InProgress++
		case "quote_sent":
			counts.QuoteSent++
		case "completed":
			if record.AssignedAt != nil && sameDay(*record.AssignedAt, time.Now().UTC()) {
				counts.CompletedToday++
			}
		}
	}
	return counts, nil
}

func (m *MemoryProvider) AverageRating(_ context.Context, providerID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ratings[providerID], nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var _ routing.DataProvider = (*MemoryProvider)(nil)
