package engine

import "fmt"

// GameStatus is the lifecycle state of the surrounding game session.
type GameStatus uint8

const (
	StatusWaiting GameStatus = iota
	StatusActive
	StatusFinished
)

var gameStatusNames = [...]string{"waiting", "active", "finished"}

func (s GameStatus) String() string {
	if int(s) < len(gameStatusNames) {
		return gameStatusNames[s]
	}
	return "unknown"
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	i, err := lookupName(gameStatusNames[:], text)
	if err != nil {
		return fmt.Errorf("game status: %w", err)
	}
	*s = GameStatus(i)
	return nil
}

// MoveContext is what validation needs to know about the session.
type MoveContext struct {
	Board  Board
	ToMove Color
	// Player is the side submitting the move.
	Player Color
	Status GameStatus
}

// ValidateMove checks a from/to request. See ValidateRequest.
func ValidateMove(ctx MoveContext, from, to Position) (Move, error) {
	return ValidateRequest(ctx, MoveRequest{From: from, To: to})
}

// ValidateRequest returns the legal move matching req, or a *ValidationError.
// Checks run in a fixed order: game state, turn, origin piece, move shape,
// then mandatory capture; the first failing check decides the error.
func ValidateRequest(ctx MoveContext, req MoveRequest) (Move, error) {
	v := &validation{ctx: ctx, req: req}
	for _, check := range moveChecks {
		if err := check(v); err != nil {
			return Move{}, err
		}
		if v.matched {
			return v.match, nil
		}
	}
	return Move{}, newValidationError(InvalidMove, req.To)
}

type validation struct {
	ctx   MoveContext
	req   MoveRequest
	piece Piece
	legal []Move

	matched bool
	match   Move
	// captureShape is set when the request reads as a capture attempt.
	captureShape bool
}

type check func(v *validation) *ValidationError

var moveChecks = []check{
	checkGameState,
	checkTurn,
	checkOrigin,
	checkLegal,
	checkShape,
	checkMandatoryCapture,
}

func checkGameState(v *validation) *ValidationError {
	switch v.ctx.Status {
	case StatusActive:
		return nil
	case StatusFinished:
		return newValidationError(GameAlreadyFinished, 0)
	}
	return newValidationError(GameNotActive, 0)
}

func checkTurn(v *validation) *ValidationError {
	if v.ctx.Player == v.ctx.ToMove {
		return nil
	}
	expected := v.ctx.ToMove
	return &ValidationError{Kind: WrongTurn, ExpectedPlayer: &expected}
}

func checkOrigin(v *validation) *ValidationError {
	if !v.req.From.Valid() || !v.req.To.Valid() {
		return newValidationError(InvalidMove, 0)
	}
	pc, ok := v.ctx.Board.PieceAt(v.req.From)
	if !ok {
		return newValidationError(NoPiece, v.req.From)
	}
	if pc.Color != v.ctx.Player {
		expected := v.ctx.Player
		return &ValidationError{Kind: WrongPieceColor, Position: v.req.From, ExpectedPlayer: &expected}
	}
	v.piece = pc
	return nil
}

// checkLegal accepts the request when it names a generated move. The
// remaining checks only run to explain a rejection.
func checkLegal(v *validation) *ValidationError {
	v.legal = GenerateLegalMoves(v.ctx.Board, v.ctx.Player)
	if m, ok := FindMove(v.legal, v.req); ok {
		v.matched = true
		v.match = m
	}
	return nil
}

// checkShape reports direction and path errors before an occupied
// destination.
func checkShape(v *validation) *ValidationError {
	if err := checkRoute(v); err != nil {
		return err
	}
	if !v.ctx.Board.IsEmpty(v.req.To) {
		return newValidationError(DestinationOccupied, v.req.To)
	}
	return nil
}

func checkRoute(v *validation) *ValidationError {
	b, from, to := v.ctx.Board, v.req.From, v.req.To
	if from == to {
		return newValidationError(InvalidMove, to)
	}

	for _, c := range v.req.Captures {
		v.captureShape = true
		victim, ok := b.PieceAt(c)
		if !ok {
			return newValidationError(NoPieceToCapture, c)
		}
		if victim.Color == v.piece.Color {
			return newValidationError(CannotCaptureOwnPiece, c)
		}
	}

	// An intermediate landing of a real chain is a well-formed partial
	// capture; checkMandatoryCapture reports it.
	if len(pendingLandings(v)) > 0 {
		v.captureShape = true
		return nil
	}

	d, dist, ok := between(from, to)
	if !ok {
		if v.captureShape {
			return newValidationError(InvalidCapture, to)
		}
		return newValidationError(InvalidMove, to)
	}
	if v.piece.Type == Man && d.dr != v.piece.Color.forward() {
		return newValidationError(InvalidDirection, to)
	}

	var obstacles []Position
	sq, _ := from.step(d)
	for sq != to {
		if !b.IsEmpty(sq) {
			obstacles = append(obstacles, sq)
		}
		sq, _ = sq.step(d)
	}

	if v.piece.Type == Man {
		switch {
		case dist == 1:
			return nil
		case dist == 2:
			mid, _ := from.step(d)
			v.captureShape = true
			victim, ok := b.PieceAt(mid)
			if !ok {
				return newValidationError(NoPieceToCapture, mid)
			}
			if victim.Color == v.piece.Color {
				return newValidationError(CannotCaptureOwnPiece, mid)
			}
			return nil
		}
		if v.captureShape {
			return newValidationError(InvalidCapture, to)
		}
		return newValidationError(InvalidMove, to)
	}

	switch len(obstacles) {
	case 0:
		return nil
	case 1:
		v.captureShape = true
		victim, _ := b.PieceAt(obstacles[0])
		if victim.Color == v.piece.Color {
			return newValidationError(CannotCaptureOwnPiece, obstacles[0])
		}
		return nil
	}
	return newValidationError(PathBlocked, obstacles[1])
}

func checkMandatoryCapture(v *validation) *ValidationError {
	if len(v.legal) == 0 || !v.legal[0].IsCapture() {
		return nil
	}
	if pending := pendingLandings(v); len(pending) > 0 {
		return &ValidationError{Kind: IncompleteCaptureSequence, Position: v.req.To, Squares: pending}
	}
	if !v.captureShape {
		return &ValidationError{Kind: CaptureRequired, Position: v.req.From, Squares: capturingSquares(v.legal)}
	}
	return newValidationError(InvalidCapture, v.req.To)
}

// pendingLandings returns the next landing squares of every legal chain from
// the requested origin that passes through the requested destination before
// its end, honouring any captures listed in the request.
func pendingLandings(v *validation) []Position {
	var out []Position
	seen := map[Position]bool{}
	for _, m := range v.legal {
		if m.From != v.req.From {
			continue
		}
		for i := 0; i < len(m.Path)-1; i++ {
			if m.Path[i] != v.req.To {
				continue
			}
			if len(v.req.Captures) > 0 && !samePositions(m.CapturedSquares[:i+1], v.req.Captures) {
				continue
			}
			next := m.Path[i+1]
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
			}
		}
	}
	return out
}

func capturingSquares(legal []Move) []Position {
	var out []Position
	seen := map[Position]bool{}
	for _, m := range legal {
		if !seen[m.From] {
			seen[m.From] = true
			out = append(out, m.From)
		}
	}
	return out
}
