package routing

// EligibilityFilter narrows a provider snapshot list to providers that
// satisfy a rule's target criteria. Filtering is stable: input order is
// preserved in the output.
type EligibilityFilter struct{}

// NewEligibilityFilter creates a filter.
func NewEligibilityFilter() *EligibilityFilter {
	return &EligibilityFilter{}
}

// Eligible returns the providers that may receive an assignment under the
// target. Base availability (active, accepting requests) and the exclusion
// list always apply. When the target carries an explicit provider allow-list,
// membership in that list is sufficient and exclusive: all other criteria are
// bypassed. Otherwise every remaining criterion must hold; note the active
// request ceiling is a strict less-than.
func (f *EligibilityFilter) Eligible(target ProviderTarget, providers []ProviderInfo) []ProviderInfo {
	eligible := make([]ProviderInfo, 0, len(providers))
	for _, p := range providers {
		if !p.IsActive || !p.CanAcceptRequests {
			continue
		}
		if containsFold(target.ExcludedProviderIDs, p.ID) {
			continue
		}

		if len(target.ProviderIDs) > 0 {
			if containsFold(target.ProviderIDs, p.ID) {
				eligible = append(eligible, p)
			}
			continue
		}

		if target.MinRating > 0 && p.Rating < target.MinRating {
			continue
		}
		if target.MaxActiveRequests != nil && p.ActiveRequestCount >= *target.MaxActiveRequests {
			continue
		}
		if len(target.Specializations) > 0 && !intersectsFold(target.Specializations, p.Specializations) {
			continue
		}
		if len(target.Regions) > 0 && !containsFold(target.Regions, p.Region) {
			continue
		}
		if target.RequireCertification && !p.IsCertified {
			continue
		}
		if target.MinExperienceYears > 0 && p.ExperienceYears < target.MinExperienceYears {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}
