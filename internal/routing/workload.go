package routing

import (
	"context"
	"sort"

	"legal-router/internal/common/errors"
)

// WorkloadAggregator computes the per-provider load picture used by
// operational dashboards. It applies the same ordering principle as the
// load-balanced strategy: least loaded first.
type WorkloadAggregator struct {
	data DataProvider
}

// NewWorkloadAggregator creates an aggregator over the data provider.
func NewWorkloadAggregator(data DataProvider) *WorkloadAggregator {
	return &WorkloadAggregator{data: data}
}

// ProviderWorkloads sums, for every active provider, the request counts
// across all five request types: active (pending/assigned/in-progress/
// quote-sent), pending only, in-progress only, and completed today, plus the
// average public review rating. The result is sorted ascending by active
// request count; the sort is stable so equally loaded providers keep their
// listing order.
func (wa *WorkloadAggregator) ProviderWorkloads(ctx context.Context) ([]ProviderWorkload, error) {
	providers, err := wa.data.ActiveProviders(ctx)
	if err != nil {
		return nil, errors.InternalError("failed to list active providers", err)
	}

	workloads := make([]ProviderWorkload, 0, len(providers))
	for _, p := range providers {
		w := ProviderWorkload{ProviderID: p.ID, ProviderName: p.Name}

		for _, t := range RequestTypes() {
			counts, err := wa.data.RequestCounts(ctx, p.ID, t)
			if err != nil {
				return nil, errors.InternalError("failed to count requests", err).
					WithContext("provider_id", p.ID).
					WithContext("request_type", t.String())
			}
			w.ActiveRequests += counts.Active()
			w.PendingRequests += counts.Pending
			w.InProgressRequests += counts.InProgress
			w.CompletedToday += counts.CompletedToday
		}

		rating, err := wa.data.AverageRating(ctx, p.ID)
		if err != nil {
			return nil, errors.InternalError("failed to fetch provider rating", err).
				WithContext("provider_id", p.ID)
		}
		w.AverageRating = rating

		workloads = append(workloads, w)
	}

	sort.SliceStable(workloads, func(i, j int) bool {
		return workloads[i].ActiveRequests < workloads[j].ActiveRequests
	})
	return workloads, nil
}
