package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// FEN renders a position in the draughts FEN form used by PDN, e.g.
// "W:W9,10,K14:B22,23". Squares are listed in ascending order.
func FEN(b Board, toMove Color) string {
	var white, black []string
	for _, pl := range b.Pieces() {
		tok := pl.Position.String()
		if pl.Piece.Type == King {
			tok = "K" + tok
		}
		if pl.Piece.Color == White {
			white = append(white, tok)
		} else {
			black = append(black, tok)
		}
	}
	return fmt.Sprintf("%s:W%s:B%s", colorLetter(toMove), strings.Join(white, ","), strings.Join(black, ","))
}

// ParseFEN parses the form produced by FEN. The two piece lists may come in
// either order and either may be empty.
func ParseFEN(s string) (Board, Color, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 3 {
		return Board{}, White, fmt.Errorf("%w: %q: want 3 fields", ErrInvalidFEN, s)
	}

	var toMove Color
	switch fields[0] {
	case "W":
		toMove = White
	case "B":
		toMove = Black
	default:
		return Board{}, White, fmt.Errorf("%w: %q: bad side to move", ErrInvalidFEN, s)
	}

	var placements []Placement
	seen := map[byte]bool{}
	for _, field := range fields[1:] {
		if field == "" {
			return Board{}, White, fmt.Errorf("%w: %q: empty piece list", ErrInvalidFEN, s)
		}
		var color Color
		switch field[0] {
		case 'W':
			color = White
		case 'B':
			color = Black
		default:
			return Board{}, White, fmt.Errorf("%w: %q: bad color %q", ErrInvalidFEN, s, field[0])
		}
		if seen[field[0]] {
			return Board{}, White, fmt.Errorf("%w: %q: color listed twice", ErrInvalidFEN, s)
		}
		seen[field[0]] = true

		body := field[1:]
		if body == "" {
			continue
		}
		for _, tok := range strings.Split(body, ",") {
			pc := Piece{Color: color, Type: Man}
			if strings.HasPrefix(tok, "K") {
				pc.Type = King
				tok = tok[1:]
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				return Board{}, White, fmt.Errorf("%w: %q: bad square %q", ErrInvalidFEN, s, tok)
			}
			pos, err := NewPosition(n)
			if err != nil {
				return Board{}, White, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
			}
			placements = append(placements, Placement{Position: pos, Piece: pc})
		}
	}

	b, err := NewBoard(placements...)
	if err != nil {
		return Board{}, White, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return b, toMove, nil
}

// MustParseFEN is ParseFEN for literals known to be valid.
func MustParseFEN(s string) (Board, Color) {
	b, c, err := ParseFEN(s)
	if err != nil {
		panic(err)
	}
	return b, c
}

func colorLetter(c Color) string {
	if c == Black {
		return "B"
	}
	return "W"
}
