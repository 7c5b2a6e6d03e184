package testing

import "strings"

// AssertAllConsumed fails the test if any archived entry or stub was never
// used by a request.
func (r *Recorder) AssertAllConsumed() bool {
	r.t.Helper()
	left := r.Engine().Unconsumed()
	if len(left) == 0 {
		return true
	}
	r.t.Errorf("replay: %d entries of %s were never requested:\n  %s",
		len(left), r.Location(), strings.Join(left, "\n  "))
	return false
}

// AssertRemaining fails the test unless exactly n entries are unconsumed.
func (r *Recorder) AssertRemaining(n int) bool {
	r.t.Helper()
	if got := r.Engine().Remaining(); got != n {
		r.t.Errorf("replay: expected %d unconsumed entries, got %d", n, got)
		return false
	}
	return true
}

// AssertRecorded fails the test unless exactly n exchanges were recorded in
// this scope.
func (r *Recorder) AssertRecorded(n int) bool {
	r.t.Helper()
	if got := len(r.Engine().Recorded()); got != n {
		r.t.Errorf("replay: expected %d recorded exchanges, got %d", n, got)
		return false
	}
	return true
}

// AssertNothingRecorded fails the test if any exchange was recorded.
func (r *Recorder) AssertNothingRecorded() bool {
	r.t.Helper()
	return r.AssertRecorded(0)
}
