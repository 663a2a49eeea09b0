package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/naka-gawa/github-issue-stats/internal/domain"
	"github.com/naka-gawa/github-issue-stats/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func expectRepository(fetcher *mockFetcher, repo string, all []domain.Issue, allErr error) {
	fetcher.On("FetchIssues", mock.Anything, "any-owner", repo, gateway.IssueQuery{State: "open"}).Return(pagesOf(nil))
	fetcher.On("FetchIssues", mock.Anything, "any-owner", repo, gateway.IssueQuery{State: "closed", Since: testWindow.Until.Time()}).Return(pagesOf(nil))
	fetcher.On("FetchIssues", mock.Anything, "any-owner", repo, gateway.IssueQuery{State: "all", Since: testWindow.Since.Time()}).Return(pagesOf(allErr, all))
}

func TestAggregator_Run(t *testing.T) {
	testCases := []struct {
		name            string
		repos           []string
		setup           func(t *testing.T, fetcher *mockFetcher)
		expectedNames   []string
		expectedFailed  []string
		expectedSummary domain.BatchSummary
		expectError     bool
	}{
		{
			name:  "one failing repository does not stop the others",
			repos: []string{"repo-a", "repo-b", "repo-c"},
			setup: func(t *testing.T, fetcher *mockFetcher) {
				expectRepository(fetcher, "repo-a", []domain.Issue{
					{Number: 1, CreatedAt: "2024-03-02T00:00:00Z", State: domain.StateOpen},
				}, nil)
				expectRepository(fetcher, "repo-b", nil, errors.New("github api error"))
				expectRepository(fetcher, "repo-c", []domain.Issue{
					{Number: 2, CreatedAt: "2024-03-02T00:00:00Z", State: domain.StateOpen},
					{Number: 3, CreatedAt: "2024-03-03T00:00:00Z", State: domain.StateOpen},
					{Number: 4, CreatedAt: "2024-03-04T00:00:00Z", State: domain.StateOpen},
				}, nil)
				fetcher.On("FetchTimeline", mock.Anything, "any-owner", mock.Anything, mock.Anything).Return([]domain.RawEvent{}, nil)
			},
			expectedNames:  []string{"any-owner/repo-a", "any-owner/repo-b", "any-owner/repo-c"},
			expectedFailed: []string{"any-owner/repo-b"},
			expectedSummary: domain.BatchSummary{
				Succeeded:   2,
				Failed:      1,
				Created:     domain.CountSummary{Total: 4, Mean: 2, Median: 2},
				CreatedOpen: domain.CountSummary{Total: 4, Mean: 2, Median: 2},
			},
		},
		{
			name: "repositories are discovered when none are given",
			setup: func(t *testing.T, fetcher *mockFetcher) {
				fetcher.On("ListRepositories", mock.Anything, "any-owner").Return([]string{"found"}, nil)
				expectRepository(fetcher, "found", nil, nil)
			},
			expectedNames:   []string{"any-owner/found"},
			expectedSummary: domain.BatchSummary{Succeeded: 1},
		},
		{
			name: "discovery failure is returned",
			setup: func(t *testing.T, fetcher *mockFetcher) {
				fetcher.On("ListRepositories", mock.Anything, "any-owner").Return(nil, errors.New("graphql error"))
			},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			tc.setup(t, fetcher)
			aggregator := NewAggregator(fetcher, discardLogger(), 1)

			report, err := aggregator.Run(context.Background(), "any-owner", tc.repos, testWindow)
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "any-owner", report.Owner)
			assert.Equal(t, testWindow, report.Window)

			var names, failed []string
			for _, entry := range report.Repositories {
				names = append(names, entry.Name)
				if entry.Error != "" {
					failed = append(failed, entry.Name)
					assert.Nil(t, entry.Stats)
				} else {
					assert.NotNil(t, entry.Stats)
				}
			}
			assert.Equal(t, tc.expectedNames, names)
			assert.Equal(t, tc.expectedFailed, failed)
			assert.Equal(t, tc.expectedSummary, report.Summary)
			fetcher.AssertExpectations(t)
		})
	}
}
