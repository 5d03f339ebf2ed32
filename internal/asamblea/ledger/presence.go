package ledger

// IsPresent reports whether the latest activity in log is an arrival. An
// empty log means the attendee never checked in.
func IsPresent(log EntryLog) bool {
	latest, ok := log.Latest()
	if !ok {
		return false
	}
	return IsArrival(latest.Kind)
}

// NextAction is what the door desk should record next for an attendee.
type NextAction struct {
	Kind string `json:"kind"`
	// NeedsControlNumber is set for arrivals, which hand out a control.
	NeedsControlNumber bool `json:"needs_control_number"`
}

// NextActionFor derives the next activity from the log: first entry, then
// alternating exit and re-entry. A log ending in an unknown kind starts
// over with an entry.
func NextActionFor(log EntryLog) NextAction {
	latest, ok := log.Latest()
	switch {
	case !ok:
		return NextAction{Kind: KindEntry, NeedsControlNumber: true}
	case IsArrival(latest.Kind):
		return NextAction{Kind: KindExit}
	case CanonicalKind(latest.Kind) == KindExit:
		return NextAction{Kind: KindReEntry, NeedsControlNumber: true}
	default:
		return NextAction{Kind: KindEntry, NeedsControlNumber: true}
	}
}
