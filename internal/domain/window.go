package domain

import (
	"fmt"
	"time"
)

// InstantLayout is the only timestamp representation accepted by the core.
// It is fixed-width and zero-padded, so lexical order equals chronological order.
const InstantLayout = "2006-01-02T15:04:05Z"

// Instant is a UTC point in time with second precision, kept in its textual form.
type Instant string

// ParseInstant validates s against InstantLayout. The value must round-trip
// exactly; fractional seconds and offsets are rejected.
func ParseInstant(s string) (Instant, error) {
	t, err := time.Parse(InstantLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidInstant, s, err)
	}
	if t.UTC().Format(InstantLayout) != s {
		return "", fmt.Errorf("%w %q: not in %s form", ErrInvalidInstant, s, InstantLayout)
	}
	return Instant(s), nil
}

// InstantOf converts t to an Instant, truncating to the second.
func InstantOf(t time.Time) Instant {
	return Instant(t.UTC().Format(InstantLayout))
}

// Time returns the instant as a time.Time. It panics on a malformed value,
// which cannot be produced through ParseInstant or InstantOf.
func (i Instant) Time() time.Time {
	t, err := time.Parse(InstantLayout, string(i))
	if err != nil {
		panic(err)
	}
	return t
}

func (i Instant) String() string { return string(i) }

// Window is the half-open interval [Since, Until).
type Window struct {
	Since Instant `json:"since" yaml:"since"`
	Until Instant `json:"until" yaml:"until"`
}

// NewWindow builds a window and rejects since >= until.
func NewWindow(since, until Instant) (Window, error) {
	w := Window{Since: since, Until: until}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate reports ErrWindowOrder for an empty or inverted window and
// ErrInvalidInstant for a bound outside InstantLayout.
func (w Window) Validate() error {
	if w.Since == "" || w.Until == "" {
		return fmt.Errorf("%w: since=%q until=%q", ErrWindowOrder, w.Since, w.Until)
	}
	for _, bound := range []Instant{w.Since, w.Until} {
		if _, err := ParseInstant(string(bound)); err != nil {
			return fmt.Errorf("invalid window bound: %w", err)
		}
	}
	if w.Since >= w.Until {
		return fmt.Errorf("%w: since=%q until=%q", ErrWindowOrder, w.Since, w.Until)
	}
	return nil
}

// Contains reports whether since <= at < until.
func (w Window) Contains(at Instant) bool {
	return w.Since <= at && at < w.Until
}

// ReportWindow builds the trailing window ending at referenceHour:00:00Z on
// the UTC calendar day of now and starting lookbackDays days earlier.
func ReportWindow(now time.Time, lookbackDays, referenceHour int) (Window, error) {
	if lookbackDays < 1 {
		return Window{}, fmt.Errorf("lookback must be at least one day, got %d", lookbackDays)
	}
	if referenceHour < 0 || referenceHour > 23 {
		return Window{}, fmt.Errorf("reference hour must be within 0-23, got %d", referenceHour)
	}
	now = now.UTC()
	until := time.Date(now.Year(), now.Month(), now.Day(), referenceHour, 0, 0, 0, time.UTC)
	since := until.AddDate(0, 0, -lookbackDays)
	return NewWindow(InstantOf(since), InstantOf(until))
}
