package domain

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Timeline event kinds with dedicated handling.
const (
	EventClosed    = "closed"
	EventCommitted = "committed"
	EventReviewed  = "reviewed"
)

const (
	canonicalField = "created_at"
	timeSuffix     = "_at"
)

// RawEvent is one timeline record as delivered by the tracker. Its timestamp
// field name varies by Kind, so the payload is kept as raw JSON.
type RawEvent struct {
	Kind string
	raw  gjson.Result
}

// NewRawEvent wraps a JSON object. The kind is read from its "event" field.
func NewRawEvent(data []byte) (RawEvent, error) {
	if !gjson.ValidBytes(data) {
		return RawEvent{}, &MalformedEventError{Reason: "payload is not valid JSON"}
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return RawEvent{}, &MalformedEventError{Reason: "payload is not a JSON object"}
	}
	return RawEvent{Kind: res.Get("event").String(), raw: res}, nil
}

// Field returns the value at a gjson path inside the event.
func (e RawEvent) Field(path string) gjson.Result {
	return e.raw.Get(path)
}

// NormalizedEvent is a RawEvent with its canonical activity instant.
type NormalizedEvent struct {
	RawEvent
	CreatedAt Instant
}

// instantRule extracts the native timestamp of one event kind.
type instantRule func(RawEvent) (string, bool)

// kindRules are consulted when the event carries no created_at field.
// Kinds without an entry fall through to suffixRule.
var kindRules = map[string]instantRule{
	EventCommitted: firstOf("committer.date", "author.date"),
	EventReviewed:  firstOf("submitted_at"),
}

func firstOf(paths ...string) instantRule {
	return func(e RawEvent) (string, bool) {
		for _, p := range paths {
			if v := e.raw.Get(p); v.Type == gjson.String {
				return v.Str, true
			}
		}
		return "", false
	}
}

// suffixRule takes the first top-level string field, in document order,
// whose name ends with "_at".
func suffixRule(e RawEvent) (string, bool) {
	var found string
	var ok bool
	e.raw.ForEach(func(key, value gjson.Result) bool {
		if strings.HasSuffix(key.Str, timeSuffix) && value.Type == gjson.String {
			found, ok = value.Str, true
			return false
		}
		return true
	})
	return found, ok
}

// Normalize derives the canonical instant of e. It fails with a
// *MalformedEventError when no timestamp can be derived or the derived value
// is not in InstantLayout.
func Normalize(e RawEvent) (NormalizedEvent, error) {
	value, ok := firstOf(canonicalField)(e)
	if !ok {
		if rule, known := kindRules[e.Kind]; known {
			value, ok = rule(e)
		}
	}
	if !ok {
		value, ok = suffixRule(e)
	}
	if !ok {
		return NormalizedEvent{}, &MalformedEventError{Kind: e.Kind, Reason: "no timestamp field found"}
	}
	at, err := ParseInstant(value)
	if err != nil {
		return NormalizedEvent{}, &MalformedEventError{Kind: e.Kind, Reason: err.Error()}
	}
	return NormalizedEvent{RawEvent: e, CreatedAt: at}, nil
}
