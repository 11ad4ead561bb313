package model

import (
	"errors"
	"testing"

	"github.com/drafti/drafti-backend/internal/testutil"
)

func TestQueue(t *testing.T) {
	q := NewQueue()
	if _, _, ok := q.GetNextPair(); ok {
		t.Fatal("GetNextPair on empty queue returned a pair")
	}

	for _, id := range []string{"a", "b", "c"} {
		testutil.AssertNoError(t, q.AddPlayer(Player{ID: id}))
	}
	if err := q.AddPlayer(Player{ID: "b"}); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("duplicate AddPlayer error = %v, want ErrAlreadyQueued", err)
	}
	testutil.AssertEqual(t, q.Size(), 3)

	first, second, ok := q.GetNextPair()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, []string{first.ID, second.ID}, []string{"a", "b"})
	testutil.AssertEqual(t, q.Contains("c"), true)

	if _, _, ok := q.GetNextPair(); ok {
		t.Error("GetNextPair with one player returned a pair")
	}
	testutil.AssertEqual(t, q.Remove("c"), true)
	testutil.AssertEqual(t, q.Remove("c"), false)
	testutil.AssertEqual(t, q.Size(), 0)
}
