package engine

import "fmt"

// Color is the side a piece belongs to. White moves first.
type Color uint8

const (
	White Color = iota
	Black
)

// Colors lists both sides, White first.
var Colors = [2]Color{White, Black}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// forward is the row delta of a man's forward step.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

// PromotionRow is the row on which a man of this color becomes a king.
func (c Color) PromotionRow() int {
	if c == White {
		return BoardSize - 1
	}
	return 0
}

// ParseColor parses "white" or "black".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w", "W":
		return White, nil
	case "black", "b", "B":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PieceType distinguishes men from (flying) kings.
type PieceType uint8

const (
	Man PieceType = iota
	King
)

func (t PieceType) String() string {
	if t == King {
		return "king"
	}
	return "man"
}

func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "man":
		*t = Man
	case "king":
		*t = King
	default:
		return fmt.Errorf("unknown piece type %q", text)
	}
	return nil
}

// Piece is an immutable color and type pair.
type Piece struct {
	Color Color     `json:"color"`
	Type  PieceType `json:"type"`
}

func (p Piece) IsKing() bool {
	return p.Type == King
}

// Promoted returns the king of the same color.
func (p Piece) Promoted() Piece {
	return Piece{Color: p.Color, Type: King}
}

func (p Piece) String() string {
	return p.Color.String() + " " + p.Type.String()
}

var (
	whiteManDirections = []direction{{1, -1}, {1, 1}}
	blackManDirections = []direction{{-1, -1}, {-1, 1}}
)

// directions returns the diagonals along which the piece may move and capture.
func (p Piece) directions() []direction {
	switch {
	case p.Type == King:
		return diagonals[:]
	case p.Color == White:
		return whiteManDirections
	default:
		return blackManDirections
	}
}
