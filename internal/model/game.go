package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/ws"
)

const DefaultClock = 600 * time.Second

// Conn is the part of *websocket.Conn a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Opponent chooses moves for a computer-controlled seat.
type Opponent interface {
	NextMove(b engine.Board, c engine.Color) (engine.Move, error)
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
	// sendMu serializes writes. A websocket connection allows one writer at
	// a time, and broadcasts must arrive in the order they were taken.
	sendMu sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// The Game struct focuses on a single game's state and its observers
type Game struct {
	ID string

	mu       sync.Mutex
	board    engine.Board
	toMove   engine.Color
	status   engine.GameStatus
	outcome  engine.Outcome
	history  []engine.Board // boards after each ply, the starting board first
	moves    []Move
	captured CapturedPieces
	lastMove *SimpleMove
	sound    string
	players  [2]ClientPlayer
	clocks   [2]*Clock
	opponent Opponent

	initialClock time.Duration
	connections  *GameConnections
}

// CapturedPieces lists the pieces each side has taken.
type CapturedPieces struct {
	White []engine.Piece `json:"white"`
	Black []engine.Piece `json:"black"`
}

func (c *CapturedPieces) add(by engine.Color, pc engine.Piece) {
	if by == engine.White {
		c.White = append(c.White, pc)
	} else {
		c.Black = append(c.Black, pc)
	}
}

type Seats struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

type Result struct {
	State  engine.TerminalState `json:"state"`
	Reason engine.Reason        `json:"reason"`
}

// GameState is the snapshot pushed to clients.
type GameState struct {
	ID             string            `json:"id"`
	Status         engine.GameStatus `json:"status"`
	Sound          string            `json:"sound"`
	Board          *BoardState       `json:"boardState"`
	ToMove         engine.Color      `json:"toMove"`
	MoveHistory    []Move            `json:"moveHistory"`
	CapturedPieces CapturedPieces    `json:"capturedPieces"`
	LegalMoves     []engine.Move     `json:"legalMoves"`
	MustCapture    bool              `json:"mustCapture"`
	Countdown      engine.Countdown  `json:"countdown"`
	Result         *Result           `json:"result"`
	Players        Seats             `json:"players"`
	LastMove       *SimpleMove       `json:"lastMove"`
}

type Option func(*Game)

func WithClock(d time.Duration) Option {
	return func(g *Game) {
		g.initialClock = d
	}
}

// WithPosition starts the game from b instead of the initial setup.
func WithPosition(b engine.Board, toMove engine.Color) Option {
	return func(g *Game) {
		g.board = b
		g.toMove = toMove
	}
}

// WithOpponent seats a computer player as color.
func WithOpponent(playerID string, o Opponent, color engine.Color, level int) Option {
	return func(g *Game) {
		g.opponent = o
		g.players[color] = ClientPlayer{ID: playerID, Color: color, IsAI: true, Level: level}
	}
}

func NewGame(id string, opts ...Option) *Game {
	g := &Game{
		ID:           id,
		board:        engine.CreateInitialState(),
		toMove:       engine.White,
		status:       engine.StatusWaiting,
		captured:     CapturedPieces{White: []engine.Piece{}, Black: []engine.Piece{}},
		initialClock: DefaultClock,
		connections:  NewGameConnections(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.history = []engine.Board{g.board}
	for _, c := range engine.Colors {
		g.clocks[c] = NewClock(g.initialClock)
		g.players[c].Color = c
	}
	g.refreshClocks()
	return g
}

// AddPlayer seats playerID in the first free seat, White first. A player
// already seated gets their color back. The game starts once both seats
// are taken.
func (g *Game) AddPlayer(playerID string) (engine.Color, error) {
	g.mu.Lock()
	if c, ok := g.colorOf(playerID); ok {
		g.mu.Unlock()
		return c, nil
	}

	for _, c := range engine.Colors {
		if g.players[c].Seated() {
			continue
		}
		g.players[c] = ClientPlayer{ID: playerID, Color: c, TimeLeft: g.clocks[c].clientTime()}
		log.Debugw("player seated", "game", g.ID, "player", playerID, "color", c)
		if g.players[c.Opponent()].Seated() {
			g.start()
		}
		g.mu.Unlock()
		g.broadcastState()
		return c, nil
	}
	g.mu.Unlock()
	return engine.White, ErrGameFull
}

func (g *Game) start() {
	g.status = engine.StatusActive
	if out := engine.GetTerminalState(g.board, g.toMove, g.history); out.State.IsOver() {
		g.finish(out)
		return
	}
	g.outcome = engine.Outcome{Countdown: engine.CountdownStatus(g.history)}
	g.clocks[g.toMove].Start()
	log.Infow("game started", "game", g.ID, "white", g.players[engine.White].ID, "black", g.players[engine.Black].ID)
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot()
}

func (g *Game) Status() engine.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *Game) Outcome() engine.Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) ColorOf(playerID string) (engine.Color, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.colorOf(playerID)
}

func (g *Game) colorOf(playerID string) (engine.Color, bool) {
	if playerID == "" {
		return engine.White, false
	}
	for _, c := range engine.Colors {
		if g.players[c].ID == playerID {
			return c, true
		}
	}
	return engine.White, false
}

// CanSpectate reports whether a seat is still open.
func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.canSpectate()
}

func (g *Game) canSpectate() bool {
	return !g.players[engine.White].Seated() || !g.players[engine.Black].Seated()
}

// LegalMoves lists the moves of the side to play, optionally only those
// starting on from. It is empty unless the game is active.
func (g *Game) LegalMoves(from engine.Position) []engine.Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != engine.StatusActive {
		return []engine.Move{}
	}
	if from == 0 {
		return engine.GenerateLegalMoves(g.board, g.toMove)
	}
	return engine.LegalMovesFrom(g.board, g.toMove, from)
}

// MakeMove validates req for playerID and applies it. A rejected move
// returns a *engine.ValidationError and leaves the game untouched.
func (g *Game) MakeMove(playerID string, req engine.MoveRequest) (engine.Move, error) {
	g.mu.Lock()
	color, ok := g.colorOf(playerID)
	if !ok {
		g.mu.Unlock()
		return engine.Move{}, ErrNotInGame
	}

	flagged := g.checkTimeout()
	m, err := engine.ValidateRequest(g.contextFor(color), req)
	if err != nil {
		g.mu.Unlock()
		if flagged {
			g.broadcastState()
		}
		return engine.Move{}, err
	}
	g.apply(m)
	g.mu.Unlock()

	g.broadcastState()
	return m, nil
}

func (g *Game) contextFor(player engine.Color) engine.MoveContext {
	return engine.MoveContext{
		Board:  g.board,
		ToMove: g.toMove,
		Player: player,
		Status: g.status,
	}
}

func (g *Game) apply(m engine.Move) {
	mover := g.toMove
	g.clocks[mover].Stop()

	ply := &Ply{
		Player:    mover,
		From:      m.From,
		To:        m.To,
		Path:      m.Path,
		Captured:  []CapturedPiece{},
		Promotion: m.IsPromotion,
		Notation:  m.Notation,
		TimeLeft:  g.clocks[mover].clientTime(),
	}
	for _, sq := range m.CapturedSquares {
		pc, _ := g.board.PieceAt(sq)
		ply.Captured = append(ply.Captured, CapturedPiece{Position: sq, Piece: pc})
		g.captured.add(mover, pc)
	}

	g.board = engine.ApplyMove(g.board, m)
	g.history = append(g.history, g.board)
	g.recordPly(ply)
	g.toMove = mover.Opponent()
	g.lastMove = &SimpleMove{From: m.From, To: m.To}

	switch {
	case m.IsPromotion:
		g.sound = "promotion"
	case m.IsCapture():
		g.sound = "capture"
	default:
		g.sound = "move"
	}

	g.outcome = engine.GetTerminalState(g.board, g.toMove, g.history)
	if g.outcome.State.IsOver() {
		g.finish(g.outcome)
	} else {
		g.clocks[g.toMove].Start()
	}
	g.refreshClocks()
}

func (g *Game) recordPly(ply *Ply) {
	if ply.Player == engine.White {
		g.moves = append(g.moves, Move{WhitePly: ply})
		return
	}
	last := len(g.moves) - 1
	if last < 0 || g.moves[last].BlackPly != nil {
		g.moves = append(g.moves, Move{BlackPly: ply})
		return
	}
	g.moves[last].BlackPly = ply
}

func (g *Game) finish(out engine.Outcome) {
	out.Countdown = engine.CountdownStatus(g.history)
	g.status = engine.StatusFinished
	g.outcome = out
	g.sound = "gameOver"
	for _, c := range g.clocks {
		c.Stop()
	}
	log.Infow("game finished", "game", g.ID, "result", out.State, "reason", out.Reason)
}

// Resign ends the game in the opponent's favour.
func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	color, ok := g.colorOf(playerID)
	if !ok {
		g.mu.Unlock()
		return ErrNotInGame
	}
	switch g.status {
	case engine.StatusFinished:
		g.mu.Unlock()
		return &engine.ValidationError{Kind: engine.GameAlreadyFinished}
	case engine.StatusWaiting:
		g.mu.Unlock()
		return &engine.ValidationError{Kind: engine.GameNotActive}
	}
	g.finish(engine.ResignationResult(color))
	g.refreshClocks()
	g.mu.Unlock()

	g.broadcastState()
	return nil
}

// CheckTimeout ends the game if the side to move has run out of time and
// reports whether it did.
func (g *Game) CheckTimeout() bool {
	g.mu.Lock()
	flagged := g.checkTimeout()
	g.mu.Unlock()

	if flagged {
		g.broadcastState()
	}
	return flagged
}

func (g *Game) checkTimeout() bool {
	if g.status != engine.StatusActive || !g.clocks[g.toMove].Expired() {
		return false
	}
	g.finish(engine.TimeoutResult(g.board, g.toMove))
	g.refreshClocks()
	return true
}

// AITurnPending reports whether the computer seat is to move.
func (g *Game) AITurnPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aiToMove()
}

func (g *Game) aiToMove() bool {
	return g.opponent != nil && g.status == engine.StatusActive && g.players[g.toMove].IsAI
}

// PlayAITurn lets the computer seat move. The search runs without holding
// the game lock; if the game changed meanwhile the result is dropped and
// played is false.
func (g *Game) PlayAITurn() (m engine.Move, played bool, err error) {
	g.mu.Lock()
	if !g.aiToMove() {
		g.mu.Unlock()
		return engine.Move{}, false, nil
	}
	board, color, plies, opponent := g.board, g.toMove, len(g.history), g.opponent
	g.mu.Unlock()

	m, err = opponent.NextMove(board, color)
	if err != nil {
		return engine.Move{}, false, fmt.Errorf("game %s: computer move: %w", g.ID, err)
	}

	g.mu.Lock()
	if g.status != engine.StatusActive || len(g.history) != plies {
		g.mu.Unlock()
		return engine.Move{}, false, nil
	}
	if g.checkTimeout() {
		g.mu.Unlock()
		g.broadcastState()
		return engine.Move{}, false, nil
	}
	if _, err := engine.ValidateRequest(g.contextFor(color), engine.MoveRequest{From: m.From, To: m.To, Captures: m.CapturedSquares}); err != nil {
		g.mu.Unlock()
		return engine.Move{}, false, fmt.Errorf("game %s: computer move %s: %w", g.ID, m, err)
	}
	g.apply(m)
	g.mu.Unlock()

	g.broadcastState()
	return m, true, nil
}

func (g *Game) refreshClocks() {
	for _, c := range engine.Colors {
		g.players[c].TimeLeft = g.clocks[c].clientTime()
	}
}

func (g *Game) snapshot() GameState {
	g.refreshClocks()

	state := GameState{
		ID:          g.ID,
		Status:      g.status,
		Sound:       g.sound,
		Board:       NewBoardState(g.board, g.toMove),
		ToMove:      g.toMove,
		MoveHistory: append([]Move{}, g.moves...),
		CapturedPieces: CapturedPieces{
			White: append([]engine.Piece{}, g.captured.White...),
			Black: append([]engine.Piece{}, g.captured.Black...),
		},
		LegalMoves: []engine.Move{},
		Countdown:  engine.CountdownStatus(g.history),
		Players:    Seats{White: g.players[engine.White], Black: g.players[engine.Black]},
	}
	if g.lastMove != nil {
		last := *g.lastMove
		state.LastMove = &last
	}
	switch g.status {
	case engine.StatusActive:
		state.LegalMoves = engine.GenerateLegalMoves(g.board, g.toMove)
		state.MustCapture = len(state.LegalMoves) > 0 && state.LegalMoves[0].IsCapture()
	case engine.StatusFinished:
		state.Result = &Result{State: g.outcome.State, Reason: g.outcome.Reason}
	}
	return state
}

// RegisterConnection attaches conn for playerID. Seated players and, while a
// seat is open, prospective players may connect. A newer connection replaces
// an older one for the same player.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	authorized := seated || g.canSpectate()
	g.mu.Unlock()

	if !authorized {
		return ErrNotAuthorized
	}

	g.connections.mu.Lock()
	old, exists := g.connections.connections[playerID]
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()

	if exists && old != conn {
		log.Debugw("replacing connection", "game", g.ID, "player", playerID)
		g.connections.sendMu.Lock()
		_ = old.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection replaced"))
		g.connections.sendMu.Unlock()
		old.Close()
	}

	g.broadcastState()
	return nil
}

// UnregisterConnection detaches conn. It is a no-op when playerID has since
// connected again on another conn.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		log.Debugw("connection closed", "game", g.ID, "player", playerID)
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// Send writes v to conn, serialized with broadcasts.
func (g *Game) Send(conn Conn, v interface{}) error {
	g.connections.sendMu.Lock()
	defer g.connections.sendMu.Unlock()
	return conn.WriteJSON(v)
}

func (g *Game) broadcastState() {
	g.connections.sendMu.Lock()
	defer g.connections.sendMu.Unlock()

	g.mu.Lock()
	state := g.snapshot()
	g.mu.Unlock()

	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorw("failed to marshal game state", "game", g.ID, "error", err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	g.connections.mu.RLock()
	active := make(map[string]Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		active[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnw("failed to send state", "game", g.ID, "player", playerID, "error", err)
			g.UnregisterConnection(playerID, conn)
		}
	}
}
