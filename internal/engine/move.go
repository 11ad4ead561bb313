package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Move is one candidate transition for Player. CapturedSquares lists the
// jumped pieces in the order they were jumped; Path lists the landing square
// after each jump, so for a capture Path[len(Path)-1] == To.
type Move struct {
	Player          Color      `json:"player"`
	From            Position   `json:"from"`
	To              Position   `json:"to"`
	CapturedSquares []Position `json:"capturedSquares"`
	Path            []Position `json:"path,omitempty"`
	IsPromotion     bool       `json:"isPromotion"`
	Notation        string     `json:"notation"`
}

func (m Move) IsCapture() bool {
	return len(m.CapturedSquares) > 0
}

func (m Move) IsMultiCapture() bool {
	return len(m.CapturedSquares) > 1
}

func (m Move) String() string {
	return m.Notation
}

// Notation renders "<from>-<to>" for a simple move and
// "<from>x<c1>x...x<to>" for a capture.
func Notation(from, to Position, captured []Position) string {
	if len(captured) == 0 {
		return from.String() + "-" + to.String()
	}
	var sb strings.Builder
	sb.WriteString(from.String())
	for _, c := range captured {
		sb.WriteByte('x')
		sb.WriteString(c.String())
	}
	sb.WriteByte('x')
	sb.WriteString(to.String())
	return sb.String()
}

// MoveRequest is a user-submitted move. Captures is optional and only used to
// pick between several capture chains sharing From and To.
type MoveRequest struct {
	From     Position   `json:"from"`
	To       Position   `json:"to"`
	Captures []Position `json:"captures,omitempty"`
}

// ParseNotation reads "9-13", "14x19x23" or the shorthand "14x23" (a capture
// whose jumped squares are left to the generator).
func ParseNotation(s string) (MoveRequest, error) {
	s = strings.TrimSpace(s)
	sep := "-"
	if strings.Contains(s, "x") {
		sep = "x"
	}
	fields := strings.Split(s, sep)
	if len(fields) < 2 || (sep == "-" && len(fields) != 2) {
		return MoveRequest{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	squares := make([]Position, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return MoveRequest{}, fmt.Errorf("%w: %q: bad square %q", ErrInvalidNotation, s, f)
		}
		p, err := NewPosition(n)
		if err != nil {
			return MoveRequest{}, fmt.Errorf("%w: %q: %v", ErrInvalidNotation, s, err)
		}
		squares[i] = p
	}

	req := MoveRequest{From: squares[0], To: squares[len(squares)-1]}
	if len(squares) > 2 {
		req.Captures = squares[1 : len(squares)-1]
	}
	return req, nil
}

// FindMove returns the first legal move matching req. Without Captures the
// first chain in generation order between From and To wins. Captures is
// ignored when the candidate is a simple move.
func FindMove(legal []Move, req MoveRequest) (Move, bool) {
	for _, m := range legal {
		if m.From != req.From || m.To != req.To {
			continue
		}
		if len(req.Captures) > 0 && m.IsCapture() && !samePositions(m.CapturedSquares, req.Captures) {
			continue
		}
		return m, true
	}
	return Move{}, false
}

func samePositions(a, b []Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
