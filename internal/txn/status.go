package txn

// Status represents the lifecycle of a transaction inside the pipeline.
type Status string

const (
	StatusFetched     Status = "fetched"
	StatusCleaned     Status = "cleaned"
	StatusEnriched    Status = "enriched"
	StatusCategorized Status = "categorized"
	StatusExported    Status = "exported"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusFetched,
	StatusCleaned,
	StatusEnriched,
	StatusCategorized,
	StatusExported,
	StatusFailed,
}

var statusRank = map[Status]int{
	StatusFetched:     0,
	StatusCleaned:     1,
	StatusEnriched:    2,
	StatusCategorized: 3,
	StatusExported:    4,
	StatusFailed:      5,
}

// AllStatuses returns the statuses in lifecycle order, failed last.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of the status in the forward ordering. Failed
// ranks above every live status so monotonicity holds on the failure path too.
func (s Status) Rank() int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// Terminal reports whether no further stage may advance the item.
func (s Status) Terminal() bool {
	return s == StatusExported || s == StatusFailed
}

// Before reports whether s precedes other in the forward ordering.
func (s Status) Before(other Status) bool {
	return s.Rank() < other.Rank()
}
