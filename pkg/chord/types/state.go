package types

import "time"

// State is the single mutable record a node owns, per the data model.
// It is mutated only by the state-machine handlers in package core and
// is produced fresh (a copy) by every Continuation invocation, never
// edited in place by one.
type State struct {
	// Ptr is this node's own Pointer. Immutable after construction.
	Ptr Pointer

	// SuccListLen is the configured successor-list breadth (spec's
	// SUCC_LIST_LEN). It travels with State, rather than living on a
	// Node field, so that the pure Continuations that call MakeSuccs
	// do not need access to anything beyond the State they're handed.
	SuccListLen int

	// Pred is the believed predecessor, or nil.
	Pred *Pointer

	// SuccList is the ordered list of successor Pointers, length <=
	// SuccListLen.
	SuccList []Pointer

	// Joined reports whether the node has completed join and is
	// participating in the ring.
	Joined bool

	// RectifyWith is a pending notifier Pointer awaiting predecessor
	// verification, or nil.
	RectifyWith *Pointer

	// Known is the bootstrap Pointer used to join, or nil once joined.
	Known *Pointer

	// Query is the single in-flight Query, or nil.
	Query *Query

	// QuerySent is the timestamp Query was issued at, or nil. Invariant
	// I1: Query != nil iff QuerySent != nil.
	QuerySent *time.Time

	// LastStabilize is the last time the node ran a stabilize or join
	// attempt from timeoutHandler. Promoted from the Python Node's
	// self.last_stabilize instance field into State so the whole
	// mutable record lives in one value, per the teacher's
	// single-struct-of-mutable-fields shape (GroupState in
	// pkg/mcast/protocol.go).
	LastStabilize time.Time
}

// CheckInvariants validates I1-I6 from spec §3. It is used by tests;
// the node itself never calls it, so it is not on the hot path.
func (s State) CheckInvariants() error {
	if (s.Query == nil) != (s.QuerySent == nil) {
		return errInvariant("I1: query and query_sent must be nil together")
	}
	if s.SuccListLen > 0 && len(s.SuccList) > s.SuccListLen {
		return errInvariant("I2/P2: succ_list longer than configured limit")
	}
	solo := true
	for _, p := range s.SuccList {
		if !p.Equal(s.Ptr) {
			solo = false
			break
		}
	}
	seen := make(map[ID]bool, len(s.SuccList))
	for _, p := range s.SuccList {
		if p.Equal(s.Ptr) && !solo {
			return errInvariant("I4: ptr must not appear in succ_list")
		}
		if seen[p.ID] && !solo {
			return errInvariant("I4: succ_list contains a duplicate")
		}
		seen[p.ID] = true
	}
	if s.Joined && len(s.SuccList) == 0 {
		return errInvariant("I3: joined node must have a non-empty succ_list")
	}
	if s.Joined && s.Pred != nil && s.Pred.Equal(s.Ptr) && !solo {
		return errInvariant("I5: pred must not be self unless alone in the ring")
	}
	if s.RectifyWith != nil && s.Query == nil {
		return errInvariant("I6: rectify_with must be drained once the query slot is free")
	}
	return nil
}

type invariantError string

func (e invariantError) Error() string { return string(e) }

func errInvariant(msg string) error { return invariantError(msg) }
