package services

// MilestoneDefinition names a view-count threshold a video can cross at most
// once. Definitions are plain data; the service iterates them in ascending
// threshold order.
type MilestoneDefinition struct {
	Type  string
	Value int64
}

// DefaultMilestones returns the fixed product catalog, ordered ascending.
// Callers get a fresh slice so nothing can mutate the catalog mid-run.
func DefaultMilestones() []MilestoneDefinition {
	return []MilestoneDefinition{
		{Type: "1M_VIEWS", Value: 1_000_000},
		{Type: "5M_VIEWS", Value: 5_000_000},
		{Type: "10M_VIEWS", Value: 10_000_000},
		{Type: "50M_VIEWS", Value: 50_000_000},
		{Type: "100M_VIEWS", Value: 100_000_000},
	}
}
