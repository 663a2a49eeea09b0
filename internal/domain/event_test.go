package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name        string
		payload     string
		expectedAt  Instant
		expectError bool
	}{
		{
			name:       "canonical created_at is returned unchanged",
			payload:    `{"event":"labeled","created_at":"2024-01-02T03:04:05Z","updated_at":"2024-02-01T00:00:00Z"}`,
			expectedAt: "2024-01-02T03:04:05Z",
		},
		{
			name:       "committed uses nested committer date",
			payload:    `{"event":"committed","sha":"abc","committer":{"name":"x","date":"2024-01-03T00:00:00Z"}}`,
			expectedAt: "2024-01-03T00:00:00Z",
		},
		{
			name:       "committed falls back to author date",
			payload:    `{"event":"committed","author":{"date":"2024-01-04T00:00:00Z"}}`,
			expectedAt: "2024-01-04T00:00:00Z",
		},
		{
			name:       "reviewed uses submitted_at",
			payload:    `{"event":"reviewed","state":"approved","submitted_at":"2024-01-05T00:00:00Z"}`,
			expectedAt: "2024-01-05T00:00:00Z",
		},
		{
			name:       "unknown kind uses the single suffixed field",
			payload:    `{"event":"cross-referenced","source":{"type":"issue"},"updated_at":"2024-01-06T00:00:00Z"}`,
			expectedAt: "2024-01-06T00:00:00Z",
		},
		{
			name:       "suffix scan skips null values and keeps document order",
			payload:    `{"event":"custom","closed_at":null,"merged_at":"2024-01-07T00:00:00Z","seen_at":"2024-01-08T00:00:00Z"}`,
			expectedAt: "2024-01-07T00:00:00Z",
		},
		{
			name:        "no timestamp field",
			payload:     `{"event":"labeled","label":{"name":"bug"}}`,
			expectError: true,
		},
		{
			name:        "timestamp in another layout",
			payload:     `{"event":"labeled","created_at":"2024-01-02 03:04:05"}`,
			expectError: true,
		},
		{
			name:        "nested suffix fields are not scanned",
			payload:     `{"event":"labeled","label":{"created_at":"2024-01-02T03:04:05Z"}}`,
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := NewRawEvent([]byte(tc.payload))
			require.NoError(t, err)

			ev, err := Normalize(raw)
			if tc.expectError {
				var malformed *MalformedEventError
				assert.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAt, ev.CreatedAt)
			assert.Equal(t, raw.Kind, ev.Kind)
		})
	}
}

func TestNewRawEvent(t *testing.T) {
	ev, err := NewRawEvent([]byte(`{"event":"commented","body":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "commented", ev.Kind)
	assert.Equal(t, "hi", ev.Field("body").String())

	_, err = NewRawEvent([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = NewRawEvent([]byte(`{"event":`))
	assert.Error(t, err)
}
