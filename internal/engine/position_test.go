package engine_test

import (
	"errors"
	"testing"

	"github.com/drafti/drafti-backend/internal/engine"
)

func TestPositionRoundTrip(t *testing.T) {
	for v := 1; v <= engine.NumSquares; v++ {
		p, err := engine.NewPosition(v)
		if err != nil {
			t.Fatalf("NewPosition(%d) error: %v", v, err)
		}
		row, col := p.RowCol()
		back, err := engine.FromRowCol(row, col)
		if err != nil {
			t.Fatalf("FromRowCol(%d, %d) error: %v", row, col, err)
		}
		if back != p {
			t.Errorf("FromRowCol(RowCol(%d)) = %d", p, back)
		}
	}
}

func TestPositionCoordinates(t *testing.T) {
	tests := []struct {
		pos      int
		row, col int
	}{
		{1, 0, 0},
		{4, 0, 6},
		{5, 1, 1},
		{8, 1, 7},
		{14, 3, 3},
		{19, 4, 4},
		{29, 7, 1},
		{32, 7, 7},
	}
	for _, tt := range tests {
		p := engine.MustPosition(tt.pos)
		if row, col := p.RowCol(); row != tt.row || col != tt.col {
			t.Errorf("Position(%d).RowCol() = (%d, %d), want (%d, %d)", tt.pos, row, col, tt.row, tt.col)
		}
	}
}

func TestNewPositionOutOfRange(t *testing.T) {
	for _, n := range []int{-1, 0, 33, 64} {
		if _, err := engine.NewPosition(n); !errors.Is(err, engine.ErrInvalidPosition) {
			t.Errorf("NewPosition(%d) error = %v, want ErrInvalidPosition", n, err)
		}
	}
}

func TestFromRowColRejects(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"negative row", -1, 1},
		{"row off board", 8, 0},
		{"col off board", 0, 8},
		{"light square", 0, 1},
		{"light square odd row", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.FromRowCol(tt.row, tt.col); !errors.Is(err, engine.ErrInvalidSquare) {
				t.Errorf("FromRowCol(%d, %d) error = %v, want ErrInvalidSquare", tt.row, tt.col, err)
			}
		})
	}
}
