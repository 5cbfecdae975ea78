package ebm

// TraceEntry records the resulting current state after one iteration's
// accept/reject decision.
type TraceEntry struct {
	Order         Order
	LogLikelihood float64
}

// Trace is the append-only accepted-order history of a chain. Appending
// clones the order inside the trace itself, so later mutation of the caller's
// order can never retroactively alter recorded history.
type Trace struct {
	entries []TraceEntry
}

// NewTrace creates an empty trace with capacity for n iterations.
func NewTrace(n int) *Trace {
	return &Trace{entries: make([]TraceEntry, 0, n)}
}

// Append records the current order and log-likelihood. The order is deep
// copied on entry; this is a structural invariant, not a caller convention.
func (t *Trace) Append(order Order, logLikelihood float64) {
	t.entries = append(t.entries, TraceEntry{
		Order:         order.Clone(),
		LogLikelihood: logLikelihood,
	})
}

// Len returns the number of recorded iterations.
func (t *Trace) Len() int {
	return len(t.entries)
}

// Entry returns the i-th recorded entry.
func (t *Trace) Entry(i int) TraceEntry {
	return t.entries[i]
}

// Entries returns the full history in iteration order.
func (t *Trace) Entries() []TraceEntry {
	return t.entries
}

// Retained applies burn-in and thinning: it drops the first burnIn entries
// and keeps every thinning-th entry of the remainder.
func (t *Trace) Retained(burnIn, thinning int) []TraceEntry {
	if burnIn < 0 {
		burnIn = 0
	}
	if thinning < 1 {
		thinning = 1
	}
	var out []TraceEntry
	for i := burnIn; i < len(t.entries); i += thinning {
		out = append(out, t.entries[i])
	}
	return out
}
