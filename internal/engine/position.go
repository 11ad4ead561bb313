package engine

import (
	"fmt"
	"strconv"
)

// Size of the board and number of playable dark squares.
const (
	BoardSize  = 8
	NumSquares = 32
)

// Position identifies one of the 32 playable dark squares, numbered 1..32
// row by row starting at White's baseline.
type Position int

// NewPosition returns the position n, failing with ErrInvalidPosition unless
// 1 <= n <= 32.
func NewPosition(n int) (Position, error) {
	if n < 1 || n > NumSquares {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, n)
	}
	return Position(n), nil
}

// MustPosition is NewPosition for constants known to be valid.
func MustPosition(n int) Position {
	p, err := NewPosition(n)
	if err != nil {
		panic(err)
	}
	return p
}

// Valid reports whether p lies in 1..32.
func (p Position) Valid() bool {
	return p >= 1 && p <= NumSquares
}

// Row returns the board row, 0 being White's baseline.
func (p Position) Row() int {
	return (int(p) - 1) / 4
}

// Col returns the board column.
func (p Position) Col() int {
	return ((int(p)-1)%4)*2 + p.Row()%2
}

// RowCol returns Row and Col together.
func (p Position) RowCol() (int, int) {
	return p.Row(), p.Col()
}

func (p Position) String() string {
	return strconv.Itoa(int(p))
}

func (p Position) index() int {
	return int(p) - 1
}

// FromRowCol converts board coordinates into a Position. Coordinates off the
// board and light squares fail with ErrInvalidSquare.
func FromRowCol(row, col int) (Position, error) {
	p, ok := squareAt(row, col)
	if !ok {
		return 0, fmt.Errorf("%w: row %d col %d", ErrInvalidSquare, row, col)
	}
	return p, nil
}

// squareAt is the allocation-free form of FromRowCol used by move generation.
func squareAt(row, col int) (Position, bool) {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return 0, false
	}
	if (row+col)%2 != 0 {
		return 0, false
	}
	return Position(row*4 + col/2 + 1), true
}

// direction is a diagonal unit step in row/column space.
type direction struct {
	dr, dc int
}

var diagonals = [4]direction{{1, -1}, {1, 1}, {-1, -1}, {-1, 1}}

func (p Position) step(d direction) (Position, bool) {
	r, c := p.RowCol()
	return squareAt(r+d.dr, c+d.dc)
}

// between returns the direction from a to b and their diagonal distance, or
// ok=false when the two squares do not share a diagonal.
func between(a, b Position) (direction, int, bool) {
	ar, ac := a.RowCol()
	br, bc := b.RowCol()
	dr, dc := br-ar, bc-ac
	if dr == 0 || abs(dr) != abs(dc) {
		return direction{}, 0, false
	}
	return direction{sign(dr), sign(dc)}, abs(dr), true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}
