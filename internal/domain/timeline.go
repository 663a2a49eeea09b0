package domain

// UpdateVerdict is the outcome of classifying one issue's timeline.
// Boundary is the event that decided it: the in-window event when Updated,
// or the most recent non-close event before the window when not. It is nil
// when the timeline ran out first.
type UpdateVerdict struct {
	Updated  bool
	Boundary *NormalizedEvent
}

// LastUpdate decides whether the issue created at createdAt had meaningful
// activity inside w. The timeline is oldest-first and may be truncated to its
// most recent events by the source.
//
// Events sharing the creation instant at the head of the timeline are creation
// bookkeeping and are dropped, as are close events anywhere. The remaining
// events are walked newest-first: events at or after w.Until are skipped, the
// first one inside w is an update, and the first one before w.Since ends the
// walk without one.
//
// Any event without a derivable instant fails the whole call.
func LastUpdate(timeline []RawEvent, createdAt Instant, w Window) (UpdateVerdict, error) {
	if err := w.Validate(); err != nil {
		return UpdateVerdict{}, err
	}

	events := make([]NormalizedEvent, 0, len(timeline))
	for _, raw := range timeline {
		ev, err := Normalize(raw)
		if err != nil {
			return UpdateVerdict{}, err
		}
		events = append(events, ev)
	}

	start := 0
	for start < len(events) && events[start].CreatedAt == createdAt {
		start++
	}
	events = events[start:]

	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Kind == EventClosed {
			continue
		}
		switch {
		case ev.CreatedAt >= w.Until:
			continue
		case ev.CreatedAt < w.Since:
			return UpdateVerdict{Boundary: &ev}, nil
		default:
			return UpdateVerdict{Updated: true, Boundary: &ev}, nil
		}
	}
	return UpdateVerdict{}, nil
}

// HasMeaningfulUpdate is LastUpdate reduced to its boolean.
func HasMeaningfulUpdate(timeline []RawEvent, createdAt Instant, w Window) (bool, error) {
	v, err := LastUpdate(timeline, createdAt, w)
	if err != nil {
		return false, err
	}
	return v.Updated, nil
}
