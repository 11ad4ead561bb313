// Package testutil holds assertions shared by the package tests.
package testutil

import (
	"fmt"
	"sort"
	"testing"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/google/go-cmp/cmp"
)

// AssertEqual compares got and want with cmp.Diff and reports differences.
func AssertEqual(t *testing.T, got, want interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		if msg := formatMessage(msgAndArgs...); msg != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", msg, diff)
		} else {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	}
}

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		if msg := formatMessage(msgAndArgs...); msg != "" {
			t.Fatalf("%s: unexpected error: %v", msg, err)
		}
		t.Fatalf("unexpected error: %v", err)
	}
}

// Notations returns the sorted notations of moves, for order-independent
// comparisons of move sets.
func Notations(moves []engine.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.Notation
	}
	sort.Strings(out)
	return out
}

// Board parses a FEN literal or fails the test.
func Board(t *testing.T, fen string) (engine.Board, engine.Color) {
	t.Helper()
	b, c, err := engine.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b, c
}

func formatMessage(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if s, ok := msgAndArgs[0].(string); ok {
		if len(msgAndArgs) == 1 {
			return s
		}
		return fmt.Sprintf(s, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs[0])
}
