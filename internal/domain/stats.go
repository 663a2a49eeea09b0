// Package domain contains the core data structures and domain logic for the application.
package domain

// IssueStats holds the issue activity counts for a single repository.
// It is the core domain entity of this application.
type IssueStats struct {
	Open             int `json:"open_count" yaml:"open_count"`
	Created          int `json:"created_count" yaml:"created_count"`
	Closed           int `json:"closed_count" yaml:"closed_count"`
	CreatedOpen      int `json:"created_open_count" yaml:"created_open_count"`
	Updated          int `json:"updated_count" yaml:"updated_count"`
	CreatedAndClosed int `json:"-" yaml:"-"`
}

// Add returns the field-wise sum of s and o with CreatedOpen recomputed.
func (s IssueStats) Add(o IssueStats) IssueStats {
	sum := IssueStats{
		Open:             s.Open + o.Open,
		Created:          s.Created + o.Created,
		Closed:           s.Closed + o.Closed,
		Updated:          s.Updated + o.Updated,
		CreatedAndClosed: s.CreatedAndClosed + o.CreatedAndClosed,
	}
	sum.CreatedOpen = sum.Created - sum.CreatedAndClosed
	return sum
}

// RepoReport is the outcome for one repository. Exactly one of Stats and
// Error is set.
type RepoReport struct {
	Name  string      `json:"name" yaml:"name"`
	Stats *IssueStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	Error string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// CountSummary describes one count across the succeeded repositories.
type CountSummary struct {
	Total  int     `json:"total" yaml:"total"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// BatchSummary aggregates the succeeded repositories of a batch.
type BatchSummary struct {
	Succeeded   int          `json:"succeeded" yaml:"succeeded"`
	Failed      int          `json:"failed" yaml:"failed"`
	Open        CountSummary `json:"open" yaml:"open"`
	Created     CountSummary `json:"created" yaml:"created"`
	Closed      CountSummary `json:"closed" yaml:"closed"`
	CreatedOpen CountSummary `json:"created_open" yaml:"created_open"`
	Updated     CountSummary `json:"updated" yaml:"updated"`
}

// BatchReport is the result of running the report over several repositories.
type BatchReport struct {
	Owner        string        `json:"owner" yaml:"owner"`
	Window       Window        `json:"window" yaml:"window"`
	Repositories []*RepoReport `json:"repositories" yaml:"repositories"`
	Summary      BatchSummary  `json:"summary" yaml:"summary"`
}
