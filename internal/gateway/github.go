// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/naka-gawa/github-issue-stats/internal/domain"
)

const perPage = 100

// IssueQuery selects a set of issues. A zero Since means no lower bound on
// the last update time.
type IssueQuery struct {
	State string
	Since time.Time
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchIssues yields decoded issue pages, pull requests included and
	// flagged. Ranging over it again restarts from the first page.
	FetchIssues(ctx context.Context, owner, repo string, q IssueQuery) iter.Seq2[[]domain.Issue, error]
	// FetchTimeline returns the timeline of one issue oldest-first. When the
	// page cap is hit, the most recent pages are the ones returned.
	FetchTimeline(ctx context.Context, owner, repo string, number int) ([]domain.RawEvent, error)
	ListRepositories(ctx context.Context, owner string) ([]string, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token   string
	BaseURL string
	// TimelineMaxPages caps timeline pages per issue. Zero means no cap.
	TimelineMaxPages int
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient       *github.Client
	graphqlClient    *githubv4.Client
	logger           *slog.Logger
	timelineMaxPages int
}

// repositoriesQuery lists the repositories owned by a user or organization.
type repositoriesQuery struct {
	RepositoryOwner struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name       string
				IsArchived bool
				IsFork     bool
			}
		} `graphql:"repositories(first: 100, after: $cursor, orderBy: {field: NAME, direction: ASC})"`
	} `graphql:"repositoryOwner(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *slog.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" && opts.BaseURL != restClient.BaseURL.String() {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		restClient.BaseURL = baseURL
		graphqlClient = githubv4.NewEnterpriseClient(graphqlEndpoint(baseURL), httpClient)
	}

	return &GitHubGateway{
		restClient:       restClient,
		graphqlClient:    graphqlClient,
		logger:           logger,
		timelineMaxPages: opts.TimelineMaxPages,
	}, nil
}

// graphqlEndpoint maps a GitHub Enterprise REST base (https://host/api/v3/)
// to its GraphQL endpoint (https://host/api/graphql).
func graphqlEndpoint(restBase *url.URL) string {
	u := *restBase
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/v3") + "/graphql"
	return u.String()
}

func (g *GitHubGateway) FetchIssues(ctx context.Context, owner, repo string, q IssueQuery) iter.Seq2[[]domain.Issue, error] {
	return func(yield func([]domain.Issue, error) bool) {
		opts := &github.IssueListByRepoOptions{
			State:       q.State,
			Since:       q.Since,
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		for {
			issues, resp, err := g.restClient.Issues.ListByRepo(ctx, owner, repo, opts)
			if err != nil {
				yield(nil, newTransportError(fmt.Sprintf("list %s issues of %s/%s", q.State, owner, repo), resp, err))
				return
			}
			page := make([]domain.Issue, 0, len(issues))
			for _, issue := range issues {
				page = append(page, toDomainIssue(issue))
			}
			if !yield(page, nil) {
				return
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
			g.logger.Debug("fetching next page of issues", "repository", owner+"/"+repo, "state", q.State, "page", opts.Page)
		}
	}
}

func toDomainIssue(issue *github.Issue) domain.Issue {
	out := domain.Issue{
		Number:        issue.GetNumber(),
		CreatedAt:     domain.InstantOf(issue.GetCreatedAt().Time),
		State:         domain.IssueState(issue.GetState()),
		IsPullRequest: issue.PullRequestLinks != nil,
	}
	if issue.ClosedAt != nil {
		out.ClosedAt = domain.InstantOf(issue.ClosedAt.Time)
	}
	return out
}

// FetchTimeline reads the timeline through the raw request path so every
// event keeps its native fields. With a page cap, only the last
// timelineMaxPages pages are kept: the first response's rel="last" link
// selects where to resume, and without one the oldest pages are dropped as
// newer ones arrive.
func (g *GitHubGateway) FetchTimeline(ctx context.Context, owner, repo string, number int) ([]domain.RawEvent, error) {
	first, resp, err := g.fetchTimelinePage(ctx, owner, repo, number, 1)
	if err != nil {
		return nil, err
	}
	pages := [][]domain.RawEvent{first}
	next := resp.NextPage
	if maxPages := g.timelineMaxPages; maxPages > 0 && resp.LastPage > maxPages {
		g.logger.Debug("timeline page cap reached", "repository", owner+"/"+repo, "issue", number,
			"pages", resp.LastPage, "kept", maxPages)
		pages = pages[:0]
		next = resp.LastPage - maxPages + 1
	}
	for next != 0 && len(first) > 0 {
		events, resp, err := g.fetchTimelinePage(ctx, owner, repo, number, next)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			break
		}
		pages = append(pages, events)
		if g.timelineMaxPages > 0 && len(pages) > g.timelineMaxPages {
			pages = pages[1:]
		}
		next = resp.NextPage
	}

	var events []domain.RawEvent
	for _, p := range pages {
		events = append(events, p...)
	}
	return events, nil
}

func (g *GitHubGateway) fetchTimelinePage(ctx context.Context, owner, repo string, number, page int) ([]domain.RawEvent, *github.Response, error) {
	u := fmt.Sprintf("repos/%s/%s/issues/%d/timeline?per_page=%d&page=%d",
		url.PathEscape(owner), url.PathEscape(repo), number, perPage, page)
	req, err := g.restClient.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline request: %w", err)
	}
	var raw []json.RawMessage
	resp, err := g.restClient.Do(ctx, req, &raw)
	if err != nil {
		return nil, nil, newTransportError(fmt.Sprintf("fetch timeline of %s/%s#%d", owner, repo, number), resp, err)
	}
	events := make([]domain.RawEvent, 0, len(raw))
	for _, data := range raw {
		ev, err := domain.NewRawEvent(data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode timeline of %s/%s#%d: %w", owner, repo, number, err)
		}
		events = append(events, ev)
	}
	return events, resp, nil
}

// ListRepositories returns the names of the owner's repositories that are
// neither archived nor forks, sorted by name.
func (g *GitHubGateway) ListRepositories(ctx context.Context, owner string) ([]string, error) {
	variables := map[string]interface{}{
		"login":  githubv4.String(owner),
		"cursor": (*githubv4.String)(nil),
	}
	var names []string
	for {
		var q repositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, newTransportError(fmt.Sprintf("list repositories of %s", owner), nil, err)
		}
		for _, node := range q.RepositoryOwner.Repositories.Nodes {
			if node.IsArchived || node.IsFork {
				continue
			}
			names = append(names, node.Name)
		}
		if !q.RepositoryOwner.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.RepositoryOwner.Repositories.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of repositories", "owner", owner)
	}
	return names, nil
}

// TransportError wraps a failed call to GitHub.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(op string, resp *github.Response, err error) *TransportError {
	te := &TransportError{Op: op, Err: err}
	var errResp *github.ErrorResponse
	switch {
	case resp != nil && resp.Response != nil:
		te.StatusCode = resp.StatusCode
	case errors.As(err, &errResp) && errResp.Response != nil:
		te.StatusCode = errResp.Response.StatusCode
	}
	return te
}
