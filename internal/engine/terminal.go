package engine

import "fmt"

// CountdownLimit is the number of moves the three-king side gets to win a
// 1-king-vs-3-kings ending before the game is drawn. Every applied move
// (either side) counts.
const CountdownLimit = 12

// TerminalState is the result of a game as seen by the rules.
type TerminalState uint8

const (
	InProgress TerminalState = iota
	WhiteWins
	BlackWins
	Draw
)

var terminalStateNames = [...]string{"in_progress", "white_wins", "black_wins", "draw"}

func (s TerminalState) String() string {
	if int(s) < len(terminalStateNames) {
		return terminalStateNames[s]
	}
	return "unknown"
}

func (s TerminalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TerminalState) UnmarshalText(text []byte) error {
	i, err := lookupName(terminalStateNames[:], text)
	if err != nil {
		return fmt.Errorf("terminal state: %w", err)
	}
	*s = TerminalState(i)
	return nil
}

// IsOver reports whether s ends the game.
func (s TerminalState) IsOver() bool {
	return s != InProgress
}

// WinFor returns the winning state for c.
func WinFor(c Color) TerminalState {
	if c == White {
		return WhiteWins
	}
	return BlackWins
}

// Reason explains how a game ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoPieces
	ReasonNoMoves
	ReasonCountdown
	ReasonTimeout
	ReasonTimeoutDraw
	ReasonResignation
)

var reasonNames = [...]string{"", "no_pieces", "no_moves", "countdown", "timeout", "timeout_draw", "resignation"}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(text []byte) error {
	i, err := lookupName(reasonNames[:], text)
	if err != nil {
		return fmt.Errorf("reason: %w", err)
	}
	*r = Reason(i)
	return nil
}

func lookupName(names []string, text []byte) (int, error) {
	for i, n := range names {
		if n == string(text) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown name %q", text)
}

// Countdown describes the 1-king-vs-3-kings endgame timer.
type Countdown struct {
	Active bool `json:"active"`
	// Strong is the side holding three kings.
	Strong Color `json:"strong"`
	// Moves played since the configuration first appeared.
	Moves     int `json:"moves"`
	Remaining int `json:"remaining"`
}

// Outcome is what GetTerminalState reports.
type Outcome struct {
	State     TerminalState `json:"state"`
	Reason    Reason        `json:"reason"`
	Countdown Countdown     `json:"countdown"`
}

// IsCountdownPosition reports whether b holds exactly one king against three
// kings with no men, and which side has the three kings.
func IsCountdownPosition(b Board) (Color, bool) {
	white, black := b.Material(White), b.Material(Black)
	if white.Men != 0 || black.Men != 0 {
		return White, false
	}
	switch {
	case white.Kings == 1 && black.Kings == 3:
		return Black, true
	case white.Kings == 3 && black.Kings == 1:
		return White, true
	}
	return White, false
}

// CountdownStatus inspects the trailing run of countdown positions in
// history, the boards after each applied move, oldest first.
func CountdownStatus(history []Board) Countdown {
	run := 0
	var strong Color
	for i := len(history) - 1; i >= 0; i-- {
		s, ok := IsCountdownPosition(history[i])
		if !ok || (run > 0 && s != strong) {
			break
		}
		strong = s
		run++
	}
	if run == 0 {
		return Countdown{}
	}
	moves := run - 1
	remaining := CountdownLimit - moves
	if remaining < 0 {
		remaining = 0
	}
	return Countdown{Active: true, Strong: strong, Moves: moves, Remaining: remaining}
}

// GetTerminalState decides whether the game on b, with toMove to play, is
// over. history holds the boards after each applied move; b is appended when
// it is not already the last entry.
func GetTerminalState(b Board, toMove Color, history []Board) Outcome {
	if len(history) == 0 || history[len(history)-1] != b {
		history = append(history[:len(history):len(history)], b)
	}
	countdown := CountdownStatus(history)

	for _, c := range [2]Color{toMove, toMove.Opponent()} {
		if b.Material(c).Total() == 0 {
			return Outcome{State: WinFor(c.Opponent()), Reason: ReasonNoPieces, Countdown: countdown}
		}
	}
	if len(GenerateLegalMoves(b, toMove)) == 0 {
		return Outcome{State: WinFor(toMove.Opponent()), Reason: ReasonNoMoves, Countdown: countdown}
	}
	if countdown.Active && countdown.Moves >= CountdownLimit {
		return Outcome{State: Draw, Reason: ReasonCountdown, Countdown: countdown}
	}
	return Outcome{State: InProgress, Countdown: countdown}
}

// TimeoutResult is the outcome when loser's clock runs out. A lone king
// flagging against three kings is a draw, not a loss.
func TimeoutResult(b Board, loser Color) Outcome {
	if strong, ok := IsCountdownPosition(b); ok && strong == loser.Opponent() {
		return Outcome{State: Draw, Reason: ReasonTimeoutDraw}
	}
	return Outcome{State: WinFor(loser.Opponent()), Reason: ReasonTimeout}
}

// ResignationResult is the outcome when loser resigns.
func ResignationResult(loser Color) Outcome {
	return Outcome{State: WinFor(loser.Opponent()), Reason: ReasonResignation}
}
