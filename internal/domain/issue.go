package domain

// IssueState is the state reported by the issue tracker.
type IssueState string

const (
	StateOpen   IssueState = "open"
	StateClosed IssueState = "closed"
)

// Issue is the read-only view of one tracker issue used by the predicates.
// ClosedAt is empty while the issue has never been closed.
type Issue struct {
	Number        int
	CreatedAt     Instant
	ClosedAt      Instant
	State         IssueState
	IsPullRequest bool
}

// OpenAt reports whether the issue was open at the given instant: created
// before it and either still open or closed at or after it.
//
// Applied to the union of currently open issues and issues closed since the
// instant, this reconstructs the historical open set. Issues closed before
// the fetch cursor are not part of that union and are never re-examined.
func (i Issue) OpenAt(at Instant) bool {
	if i.CreatedAt >= at {
		return false
	}
	return i.State == StateOpen || i.ClosedAt >= at
}

// CreatedIn reports since <= created_at < until.
//
// The window predicates expect w to come from NewWindow or to have passed
// Validate. An inverted or empty window contains no instant, so every
// predicate reports false for it rather than failing.
func (i Issue) CreatedIn(w Window) bool {
	return w.Contains(i.CreatedAt)
}

// ClosedIn reports a closed issue with since <= closed_at < until. See
// CreatedIn for the window precondition.
func (i Issue) ClosedIn(w Window) bool {
	return i.State == StateClosed && i.ClosedAt != "" && w.Contains(i.ClosedAt)
}

// CreatedAndClosedIn reports an issue both created and closed inside w.
func (i Issue) CreatedAndClosedIn(w Window) bool {
	return i.CreatedIn(w) && i.ClosedIn(w)
}
