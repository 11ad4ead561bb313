// service/game_manager.go
package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/drafti/drafti-backend/internal/bot"
	"github.com/drafti/drafti-backend/internal/config"
	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/model"
)

// Settings are the timing knobs of the manager.
type Settings struct {
	InitialClock    time.Duration
	MatchmakingTick time.Duration
	ClockSweep      time.Duration
	AIMoveDelay     time.Duration
	DefaultAILevel  int
}

func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		InitialClock:    cfg.InitialClock.Duration,
		MatchmakingTick: cfg.MatchmakingTick.Duration,
		ClockSweep:      cfg.ClockSweep.Duration,
		AIMoveDelay:     cfg.AIMoveDelay.Duration,
		DefaultAILevel:  cfg.AILevel,
	}
}

// withDefaults fills zero durations, which time.NewTicker rejects.
func (s Settings) withDefaults() Settings {
	if s.InitialClock <= 0 {
		s.InitialClock = model.DefaultClock
	}
	if s.MatchmakingTick <= 0 {
		s.MatchmakingTick = time.Second
	}
	if s.ClockSweep <= 0 {
		s.ClockSweep = 250 * time.Millisecond
	}
	if s.DefaultAILevel == 0 {
		s.DefaultAILevel = 3
	}
	return s
}

// OpponentFactory builds the computer player for a new game.
type OpponentFactory func(level int) (model.Opponent, error)

func botOpponent(level int) (model.Opponent, error) {
	b, err := bot.New(level, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	return b, nil
}

type ManagerOption func(*GameManager)

func WithOpponentFactory(f OpponentFactory) ManagerOption {
	return func(gm *GameManager) {
		gm.newOpponent = f
	}
}

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex

	settings    Settings
	newOpponent OpponentFactory

	stop     chan struct{}
	stopOnce sync.Once
	// closeMu guards closed so no computer move is scheduled once Close
	// has started waiting.
	closeMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

func NewGameManager(settings Settings, opts ...ManagerOption) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		settings:         settings.withDefaults(),
		newOpponent:      botOpponent,
		stop:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gm)
	}

	gm.wg.Add(2)
	go gm.processMatchmaking()
	go gm.sweepClocks()

	return gm
}

// Close stops the background loops and waits for pending computer moves.
func (gm *GameManager) Close() {
	gm.stopOnce.Do(func() {
		gm.closeMu.Lock()
		gm.closed = true
		gm.closeMu.Unlock()
		close(gm.stop)
	})
	gm.wg.Wait()
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debugw("registering matchmaking channel", "player", playerID)

	// Drop any older channel first so nothing else writes to it.
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch and takes playerID out of the
// queue. The channel is closed by its creator, not here.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
		gm.queue.Remove(playerID)
	}
}

func (gm *GameManager) processMatchmaking() {
	defer gm.wg.Done()
	ticker := time.NewTicker(gm.settings.MatchmakingTick)
	defer ticker.Stop()

	for {
		select {
		case <-gm.stop:
			return
		case <-ticker.C:
			for gm.matchOnce() {
			}
		}
	}
}

// matchOnce pairs the two longest-waiting players, if any, and notifies
// them. It reports whether a game was created.
func (gm *GameManager) matchOnce() bool {
	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	game := model.NewGame(gameID, model.WithClock(gm.settings.InitialClock))
	p1Color, err := game.AddPlayer(player1.ID)
	if err != nil {
		log.Errorw("failed to seat matched player", "game", gameID, "player", player1.ID, "error", err)
		return true
	}
	p2Color, err := game.AddPlayer(player2.ID)
	if err != nil {
		log.Errorw("failed to seat matched player", "game", gameID, "player", player2.ID, "error", err)
		return true
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.games[gameID] = game

	sent := gm.notifyMatch(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	if !gm.notifyMatch(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color}) {
		sent = false
	}
	if !sent {
		log.Warnw("not every matched player was notified", "game", gameID)
	}
	log.Infow("match created", "game", gameID, "white", player1.ID, "black", player2.ID)
	return true
}

// notifyMatch must be called with gm.mu held.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	select {
	case ch <- mustJSON(event):
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		return false
	}
}

func (gm *GameManager) sweepClocks() {
	defer gm.wg.Done()
	ticker := time.NewTicker(gm.settings.ClockSweep)
	defer ticker.Stop()

	for {
		select {
		case <-gm.stop:
			return
		case <-ticker.C:
			for _, game := range gm.activeGames() {
				if game.CheckTimeout() {
					log.Infow("clock expired", "game", game.ID)
				}
			}
		}
	}
}

func (gm *GameManager) activeGames() []*model.Game {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	games := make([]*model.Game, 0, len(gm.games))
	for _, game := range gm.games {
		if game.Status() == engine.StatusActive {
			games = append(games, game)
		}
	}
	return games
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID string, opts ...model.Option) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return model.ErrGameExists
	}

	opts = append([]model.Option{model.WithClock(gm.settings.InitialClock)}, opts...)
	gm.games[gameID] = model.NewGame(gameID, opts...)
	return nil
}

// CreateAIGame creates a game against the computer and seats playerID as
// humanColor. A level of 0 picks the configured default.
func (gm *GameManager) CreateAIGame(gameID, playerID string, level int, humanColor engine.Color, opts ...model.Option) error {
	if level == 0 {
		level = gm.settings.DefaultAILevel
	}
	opponent, err := gm.newOpponent(level)
	if err != nil {
		return err
	}

	aiID := "ai-" + uuid.New().String()
	opts = append(opts, model.WithOpponent(aiID, opponent, humanColor.Opponent(), level))
	if err := gm.CreateGame(gameID, opts...); err != nil {
		return err
	}
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if _, err := game.AddPlayer(playerID); err != nil {
		return err
	}
	gm.scheduleAI(game)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrGameNotFound, gameID)
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (engine.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return engine.White, err
	}

	color, err := game.AddPlayer(playerID)
	if err != nil {
		return color, err
	}
	gm.scheduleAI(game)
	return color, nil
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return err
	}
	log.Debugw("player queued", "player", playerID)
	return nil
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.GetState(), nil
}

func (gm *GameManager) LegalMoves(gameID string, from engine.Position) ([]engine.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(from), nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, req engine.MoveRequest) (engine.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return engine.Move{}, err
	}

	m, err := game.MakeMove(playerID, req)
	if err != nil {
		return engine.Move{}, err
	}
	gm.scheduleAI(game)
	return m, nil
}

func (gm *GameManager) Resign(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Resign(playerID)
}

// scheduleAI plays the computer's reply after the configured delay.
func (gm *GameManager) scheduleAI(game *model.Game) {
	if !game.AITurnPending() {
		return
	}
	gm.closeMu.Lock()
	defer gm.closeMu.Unlock()
	if gm.closed {
		return
	}

	gm.wg.Add(1)
	time.AfterFunc(gm.settings.AIMoveDelay, func() {
		defer gm.wg.Done()
		m, played, err := game.PlayAITurn()
		switch {
		case err != nil:
			log.Errorw("computer move failed", "game", game.ID, "error", err)
		case played:
			log.Debugw("computer moved", "game", game.ID, "move", m.Notation)
		}
	})
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}

	game.UnregisterConnection(playerID, conn)
}
