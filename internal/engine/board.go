package engine

import (
	"fmt"
	"strings"
)

// MaxPiecesPerColor is the number of men each side starts with.
const MaxPiecesPerColor = 12

// cell encodes the content of one square: 0 is empty, otherwise
// 1 + color*2 + type.
type cell uint8

func encode(p Piece) cell {
	return cell(1 + uint8(p.Color)*2 + uint8(p.Type))
}

func (c cell) piece() (Piece, bool) {
	if c == 0 {
		return Piece{}, false
	}
	v := uint8(c) - 1
	return Piece{Color: Color(v / 2), Type: PieceType(v % 2)}, true
}

// Board is an immutable snapshot of the 32 playable squares. It is a plain
// array, so boards are compared with == and can key maps. Every mutation
// returns a new Board.
type Board struct {
	cells [NumSquares]cell
}

// Placement is one occupied square.
type Placement struct {
	Position Position `json:"position"`
	Piece    Piece    `json:"piece"`
}

// NewBoard builds a board from placements, enforcing one piece per square and
// at most MaxPiecesPerColor pieces per color.
func NewBoard(placements ...Placement) (Board, error) {
	var b Board
	var counts [2]int
	for _, pl := range placements {
		if !pl.Position.Valid() {
			return Board{}, fmt.Errorf("%w: %d", ErrInvalidPosition, pl.Position)
		}
		if b.cells[pl.Position.index()] != 0 {
			return Board{}, fmt.Errorf("%w: square %d occupied twice", ErrInvalidSquare, pl.Position)
		}
		counts[pl.Piece.Color]++
		if counts[pl.Piece.Color] > MaxPiecesPerColor {
			return Board{}, fmt.Errorf("too many %s pieces", pl.Piece.Color)
		}
		b.set(pl.Position, pl.Piece)
	}
	return b, nil
}

// CreateInitialState returns the starting position: White men on squares
// 1..12, Black men on 21..32, the middle two rows empty.
func CreateInitialState() Board {
	var b Board
	for i := 1; i <= MaxPiecesPerColor; i++ {
		b.set(Position(i), Piece{Color: White, Type: Man})
		b.set(Position(NumSquares+1-i), Piece{Color: Black, Type: Man})
	}
	return b
}

// PieceAt returns the piece on p, if any.
func (b Board) PieceAt(p Position) (Piece, bool) {
	if !p.Valid() {
		return Piece{}, false
	}
	return b.cells[p.index()].piece()
}

// IsEmpty reports whether p is a valid, unoccupied square.
func (b Board) IsEmpty(p Position) bool {
	return p.Valid() && b.cells[p.index()] == 0
}

// With returns a copy of b with pc placed on p.
func (b Board) With(p Position, pc Piece) Board {
	b.set(p, pc)
	return b
}

// Without returns a copy of b with p emptied.
func (b Board) Without(p Position) Board {
	b.clear(p)
	return b
}

func (b *Board) set(p Position, pc Piece) {
	b.cells[p.index()] = encode(pc)
}

func (b *Board) clear(p Position) {
	b.cells[p.index()] = 0
}

// Pieces enumerates occupied squares in ascending position order.
func (b Board) Pieces() []Placement {
	out := make([]Placement, 0, 2*MaxPiecesPerColor)
	for i, c := range b.cells {
		if pc, ok := c.piece(); ok {
			out = append(out, Placement{Position: Position(i + 1), Piece: pc})
		}
	}
	return out
}

// GetAllPieces is the functional form of Board.Pieces.
func GetAllPieces(b Board) []Placement {
	return b.Pieces()
}

// Material counts the men and kings of one color.
type Material struct {
	Men   int `json:"men"`
	Kings int `json:"kings"`
}

func (m Material) Total() int {
	return m.Men + m.Kings
}

// Material returns the piece counts of color c.
func (b Board) Material(c Color) Material {
	var m Material
	for _, cl := range b.cells {
		pc, ok := cl.piece()
		if !ok || pc.Color != c {
			continue
		}
		if pc.Type == King {
			m.Kings++
		} else {
			m.Men++
		}
	}
	return m
}

// String draws the board with Black's baseline on top. Men are w/b, kings
// W/B, empty dark squares '.'.
func (b Board) String() string {
	var sb strings.Builder
	for row := BoardSize - 1; row >= 0; row-- {
		for col := 0; col < BoardSize; col++ {
			p, ok := squareAt(row, col)
			if !ok {
				sb.WriteByte(' ')
				continue
			}
			pc, occupied := b.PieceAt(p)
			switch {
			case !occupied:
				sb.WriteByte('.')
			case pc.Color == White && pc.Type == King:
				sb.WriteByte('W')
			case pc.Color == White:
				sb.WriteByte('w')
			case pc.Type == King:
				sb.WriteByte('B')
			default:
				sb.WriteByte('b')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
