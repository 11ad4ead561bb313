package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors. They signal malformed primitive values and are never
// produced from well-formed internal state.
var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidSquare   = errors.New("invalid square")
	ErrInvalidFEN      = errors.New("invalid FEN string")
	ErrInvalidNotation = errors.New("invalid move notation")
)

// ErrorKind tags a ValidationError. The set is closed.
type ErrorKind string

const (
	GameNotActive             ErrorKind = "GAME_NOT_ACTIVE"
	GameAlreadyFinished       ErrorKind = "GAME_ALREADY_FINISHED"
	WrongTurn                 ErrorKind = "WRONG_TURN"
	NoPiece                   ErrorKind = "NO_PIECE"
	WrongPieceColor           ErrorKind = "WRONG_PIECE_COLOR"
	InvalidMove               ErrorKind = "INVALID_MOVE"
	InvalidDirection          ErrorKind = "INVALID_DIRECTION"
	PathBlocked               ErrorKind = "PATH_BLOCKED"
	DestinationOccupied       ErrorKind = "DESTINATION_OCCUPIED"
	CaptureRequired           ErrorKind = "CAPTURE_REQUIRED"
	InvalidCapture            ErrorKind = "INVALID_CAPTURE"
	NoPieceToCapture          ErrorKind = "NO_PIECE_TO_CAPTURE"
	CannotCaptureOwnPiece     ErrorKind = "CANNOT_CAPTURE_OWN_PIECE"
	IncompleteCaptureSequence ErrorKind = "INCOMPLETE_CAPTURE_SEQUENCE"
)

// ErrorKinds lists every ErrorKind in validation precedence order.
var ErrorKinds = []ErrorKind{
	GameNotActive,
	GameAlreadyFinished,
	WrongTurn,
	NoPiece,
	WrongPieceColor,
	InvalidMove,
	InvalidDirection,
	PathBlocked,
	DestinationOccupied,
	CaptureRequired,
	InvalidCapture,
	NoPieceToCapture,
	CannotCaptureOwnPiece,
	IncompleteCaptureSequence,
}

// ValidationError is the user-facing outcome of an illegal move request. It is
// always recoverable: the session stays alive and the player is asked again.
type ValidationError struct {
	Kind ErrorKind `json:"kind"`
	// Position is the square the error is about (origin, destination, the
	// blocking piece or the missing victim), 0 when not applicable.
	Position Position `json:"position,omitempty"`
	// ExpectedPlayer is set for WRONG_TURN and WRONG_PIECE_COLOR.
	ExpectedPlayer *Color `json:"expectedPlayer,omitempty"`
	// Squares carries extra squares: pieces able to capture for
	// CAPTURE_REQUIRED, pending landings for INCOMPLETE_CAPTURE_SEQUENCE.
	Squares []Position `json:"squares,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	parts = append(parts, strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " ")))
	if e.Position.Valid() {
		parts = append(parts, fmt.Sprintf("square %d", e.Position))
	}
	if e.ExpectedPlayer != nil {
		parts = append(parts, fmt.Sprintf("expected %s", *e.ExpectedPlayer))
	}
	if len(e.Squares) > 0 {
		sq := make([]string, len(e.Squares))
		for i, p := range e.Squares {
			sq[i] = p.String()
		}
		parts = append(parts, "squares "+strings.Join(sq, ","))
	}
	return strings.Join(parts, ": ")
}

// Is reports whether target is a ValidationError of the same kind, so that
// errors.Is(err, &ValidationError{Kind: WrongTurn}) works.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

func newValidationError(kind ErrorKind, pos Position) *ValidationError {
	return &ValidationError{Kind: kind, Position: pos}
}
