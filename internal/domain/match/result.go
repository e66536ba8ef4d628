package match

// Reason distinguishes the ways a ranking call can come back empty. An
// empty store and an emptied-by-filters pool are different user-facing
// conditions, and neither is an error.
type Reason string

const (
	// ReasonOK means the result list is populated.
	ReasonOK Reason = "ok"
	// ReasonEmptyPool means the store had no candidates at all.
	ReasonEmptyPool Reason = "empty_pool"
	// ReasonAllFiltered means a non-empty pool was emptied by hard or
	// post-score filters.
	ReasonAllFiltered Reason = "all_filtered"
)

// Result is the outcome of one ranking call.
type Result struct {
	candidates        []Candidate
	totalConsidered   int
	totalAfterFilters int
	reason            Reason
}

// NewResult creates a ranking result.
func NewResult(candidates []Candidate, totalConsidered, totalAfterFilters int, reason Reason) Result {
	return Result{
		candidates:        candidates,
		totalConsidered:   totalConsidered,
		totalAfterFilters: totalAfterFilters,
		reason:            reason,
	}
}

// Candidates returns the ranked, truncated candidate list.
func (r Result) Candidates() []Candidate { return r.candidates }

// TotalCandidatesConsidered returns the fetched pool size before filtering.
func (r Result) TotalCandidatesConsidered() int { return r.totalConsidered }

// TotalAfterFilters returns the pool size after all filters, before
// truncation.
func (r Result) TotalAfterFilters() int { return r.totalAfterFilters }

// Reason returns the empty-result classification.
func (r Result) Reason() Reason { return r.reason }
