package testutil

import "testing"

// step runs fn as a labeled subtest so a failure reads as a sentence,
// e.g. "Given a pending record/When a reviewer approves it".
func step(t *testing.T, label, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(label+" "+desc, fn)
}

// Given states the fixture a scenario starts from.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", desc, fn)
}

// When performs the action under test.
func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", desc, fn)
}

// Then asserts the observable outcome.
func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", desc, fn)
}
