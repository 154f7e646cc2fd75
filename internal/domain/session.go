package domain

// SessionState is the per-user product search state carried across turns.
type SessionState struct {
	SearchTerm        *string `json:"search_term,omitempty"`
	PriceCeiling      *int    `json:"price_ceiling,omitempty"`
	LowerFilterActive bool    `json:"lower_filter_active"`
}

// Term returns the search term and whether one is set.
func (s SessionState) Term() (string, bool) {
	if s.SearchTerm == nil {
		return "", false
	}
	return *s.SearchTerm, true
}

// Ceiling returns the price ceiling and whether one is set.
func (s SessionState) Ceiling() (int, bool) {
	if s.PriceCeiling == nil {
		return 0, false
	}
	return *s.PriceCeiling, true
}

// WithTerm returns a copy of s with the search term replaced.
func (s SessionState) WithTerm(term string) SessionState {
	s.SearchTerm = &term
	return s
}

// WithCeiling returns a copy of s with the price ceiling replaced.
func (s SessionState) WithCeiling(ceiling int) SessionState {
	s.PriceCeiling = &ceiling
	return s
}
