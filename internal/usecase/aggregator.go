// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/naka-gawa/github-issue-stats/internal/domain"
	"github.com/naka-gawa/github-issue-stats/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// TimelineProvider returns the raw timeline of one issue, oldest-first.
type TimelineProvider func(ctx context.Context, number int) ([]domain.RawEvent, error)

// Aggregator is the use case for aggregating issue activity of a repository.
// It orchestrates the fetching and classifying of issues.
type Aggregator struct {
	fetcher     gateway.Fetcher
	logger      *slog.Logger
	concurrency int
}

// NewAggregator creates a new Aggregator instance. concurrency bounds the
// number of issues whose timelines are fetched and classified at once;
// 1 keeps processing strictly sequential.
func NewAggregator(fetcher gateway.Fetcher, logger *slog.Logger, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		fetcher:     fetcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Aggregate computes all five counts for owner/repo over w.
func (a *Aggregator) Aggregate(ctx context.Context, owner, repo string, w domain.Window) (*domain.IssueStats, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	name := owner + "/" + repo
	a.logger.Debug("starting issue aggregation", "repository", name, "since", w.Since, "until", w.Until)

	open, err := a.CountOpenAt(ctx, owner, repo, w.Until)
	if err != nil {
		return nil, err
	}

	pages := a.fetcher.FetchIssues(ctx, owner, repo, gateway.IssueQuery{State: "all", Since: w.Since.Time()})
	timelines := func(ctx context.Context, number int) ([]domain.RawEvent, error) {
		return a.fetcher.FetchTimeline(ctx, owner, repo, number)
	}
	stats, err := a.Summarize(ctx, pages, timelines, w)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", name, err)
	}
	stats.Open = open

	a.logger.Debug("issue aggregation complete", "repository", name, "stats", fmt.Sprintf("%+v", *stats))
	return stats, nil
}

// CountOpenAt counts issues open at the given instant from the currently
// open issues plus the closed issues updated since the instant. Issues closed
// before the instant without later activity are not fetched and so cannot be
// counted.
func (a *Aggregator) CountOpenAt(ctx context.Context, owner, repo string, at domain.Instant) (int, error) {
	seen := make(map[int]struct{})
	queries := []gateway.IssueQuery{
		{State: "open"},
		{State: "closed", Since: at.Time()},
	}
	for _, q := range queries {
		for page, err := range a.fetcher.FetchIssues(ctx, owner, repo, q) {
			if err != nil {
				return 0, err
			}
			for _, issue := range page {
				if issue.IsPullRequest || !issue.OpenAt(at) {
					continue
				}
				seen[issue.Number] = struct{}{}
			}
		}
	}
	return len(seen), nil
}

// Summarize folds the window predicates and the update classification over
// every page of issues. Open is left at zero; see CountOpenAt.
func (a *Aggregator) Summarize(ctx context.Context, pages iter.Seq2[[]domain.Issue, error], timelines TimelineProvider, w domain.Window) (*domain.IssueStats, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var total domain.IssueStats
	for page, err := range pages {
		if err != nil {
			return nil, err
		}
		pageStats, err := a.summarizePage(ctx, page, timelines, w)
		if err != nil {
			return nil, err
		}
		total = total.Add(pageStats)
	}
	return &total, nil
}

func (a *Aggregator) summarizePage(ctx context.Context, page []domain.Issue, timelines TimelineProvider, w domain.Window) (domain.IssueStats, error) {
	issues := make([]domain.Issue, 0, len(page))
	for _, issue := range page {
		if !issue.IsPullRequest {
			issues = append(issues, issue)
		}
	}

	updated, err := a.classifyUpdates(ctx, issues, timelines, w)
	if err != nil {
		return domain.IssueStats{}, err
	}

	var s domain.IssueStats
	considered := make([]int, 0, len(issues))
	var updatedNumbers []int
	for i, issue := range issues {
		considered = append(considered, issue.Number)
		if issue.CreatedIn(w) {
			s.Created++
		}
		if issue.ClosedIn(w) {
			s.Closed++
		}
		if issue.CreatedAndClosedIn(w) {
			s.CreatedAndClosed++
		}
		if updated[i] {
			s.Updated++
			updatedNumbers = append(updatedNumbers, issue.Number)
		}
	}
	s.CreatedOpen = s.Created - s.CreatedAndClosed

	a.logger.Debug("classified issue page", "considered", considered, "updated", updatedNumbers)
	return s, nil
}

// classifyUpdates runs the timeline classification for each issue, at most
// a.concurrency at a time. Result i belongs to issues[i].
func (a *Aggregator) classifyUpdates(ctx context.Context, issues []domain.Issue, timelines TimelineProvider, w domain.Window) ([]bool, error) {
	updated := make([]bool, len(issues))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i, issue := range issues {
		eg.Go(func() error {
			timeline, err := timelines(egCtx, issue.Number)
			if err != nil {
				return err
			}
			verdict, err := domain.LastUpdate(timeline, issue.CreatedAt, w)
			if err != nil {
				return fmt.Errorf("failed to classify issue #%d: %w", issue.Number, err)
			}
			if !verdict.Updated && verdict.Boundary != nil {
				a.logger.Info("last non-closed event precedes window",
					"issue", issue.Number, "event", verdict.Boundary.Kind, "created_at", verdict.Boundary.CreatedAt)
			}
			updated[i] = verdict.Updated
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return updated, nil
}
