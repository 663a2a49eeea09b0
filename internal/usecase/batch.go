package usecase

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-issue-stats/internal/domain"
)

// Run aggregates each repository of owner over w. When repos is empty the
// owner's repositories are discovered through the gateway. A failing
// repository is recorded in its report entry and does not stop the others;
// only a failed discovery returns an error.
func (a *Aggregator) Run(ctx context.Context, owner string, repos []string, w domain.Window) (*domain.BatchReport, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		discovered, err := a.fetcher.ListRepositories(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to discover repositories of %s: %w", owner, err)
		}
		a.logger.Info("discovered repositories", "owner", owner, "count", len(discovered))
		repos = discovered
	}

	report := &domain.BatchReport{
		Owner:        owner,
		Window:       w,
		Repositories: make([]*domain.RepoReport, 0, len(repos)),
	}
	for _, repo := range repos {
		entry := &domain.RepoReport{Name: owner + "/" + repo}
		s, err := a.Aggregate(ctx, owner, repo, w)
		if err != nil {
			a.logger.Error("repository aggregation failed", "repository", entry.Name, "error", err)
			entry.Error = err.Error()
		} else {
			a.logger.Info("repository aggregated", "repository", entry.Name)
			entry.Stats = s
		}
		report.Repositories = append(report.Repositories, entry)
	}
	report.Summary = summarizeBatch(report.Repositories)
	return report, nil
}

func summarizeBatch(entries []*domain.RepoReport) domain.BatchSummary {
	var summary domain.BatchSummary
	var open, created, closed, createdOpen, updated []float64
	for _, entry := range entries {
		if entry.Stats == nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		open = append(open, float64(entry.Stats.Open))
		created = append(created, float64(entry.Stats.Created))
		closed = append(closed, float64(entry.Stats.Closed))
		createdOpen = append(createdOpen, float64(entry.Stats.CreatedOpen))
		updated = append(updated, float64(entry.Stats.Updated))
	}
	summary.Open = describe(open)
	summary.Created = describe(created)
	summary.Closed = describe(closed)
	summary.CreatedOpen = describe(createdOpen)
	summary.Updated = describe(updated)
	return summary
}

// describe returns zeros for an empty input.
func describe(values []float64) domain.CountSummary {
	if len(values) == 0 {
		return domain.CountSummary{}
	}
	data := stats.Float64Data(values)
	sum, _ := data.Sum()
	mean, _ := data.Mean()
	median, _ := data.Median()
	return domain.CountSummary{Total: int(sum), Mean: mean, Median: median}
}
