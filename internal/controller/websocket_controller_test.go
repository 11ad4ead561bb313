package controller

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/middleware"
	"github.com/drafti/drafti-backend/internal/model"
	"github.com/drafti/drafti-backend/internal/service"
	"github.com/drafti/drafti-backend/internal/testutil"
	"github.com/drafti/drafti-backend/internal/ws"
)

// startServer serves the WebSocket routes on a loopback port and returns
// its base URL.
func startServer(t *testing.T, settings service.Settings) (string, *service.GameService) {
	t.Helper()
	gm := service.NewGameManager(settings)
	t.Cleanup(gm.Close)
	gs := service.NewGameService(gm)
	wsc := NewWebSocketController(gs)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	routes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.Language(), middleware.WebSocketUpgrade())
	routes.Get("/game/:gameId", websocket.New(wsc.HandleConnection))
	routes.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err)
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})
	return "ws://" + ln.Addr().String(), gs
}

func dial(t *testing.T, url string) *fastws.Conn {
	t.Helper()
	conn, _, err := fastws.DefaultDialer.Dial(url, nil)
	testutil.AssertNoError(t, err, "dial %s", url)
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

// readUntil reads messages until one of type want arrives and accept
// returns true for its payload.
func readUntil(t *testing.T, conn *fastws.Conn, want ws.MessageType, accept func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if msg.Type == want && (accept == nil || accept(msg.Payload)) {
			return msg.Payload
		}
	}
}

func send(t *testing.T, conn *fastws.Conn, typ ws.MessageType, payload interface{}) {
	t.Helper()
	msg, err := ws.NewMessage(typ, payload)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, conn.WriteJSON(msg))
}

func TestGameSocket(t *testing.T) {
	base, gs := startServer(t, service.Settings{MatchmakingTick: time.Hour})
	gameID, err := gs.CreateGame("alice", service.NewGameOptions{})
	testutil.AssertNoError(t, err)
	for _, p := range []string{"alice", "bob"} {
		_, err := gs.JoinGame(gameID, p)
		testutil.AssertNoError(t, err)
	}

	alice := dial(t, base+"/ws/game/"+gameID+"?playerId=alice")
	bob := dial(t, base+"/ws/game/"+gameID+"?playerId=bob&lang=sw")
	readUntil(t, alice, ws.MessageTypeGameState, nil)
	readUntil(t, bob, ws.MessageTypeGameState, nil)

	send(t, alice, ws.MessageTypeMove, model.WSMove{From: 9, To: 13})
	blackToMove := func(p json.RawMessage) bool {
		var state model.GameState
		return json.Unmarshal(p, &state) == nil && state.ToMove == engine.Black
	}
	readUntil(t, alice, ws.MessageTypeGameState, blackToMove)
	readUntil(t, bob, ws.MessageTypeGameState, blackToMove)

	send(t, alice, ws.MessageTypeMove, model.WSMove{From: 10, To: 14})
	var wrongTurn ws.ErrorPayload
	testutil.AssertNoError(t, json.Unmarshal(readUntil(t, alice, ws.MessageTypeError, nil), &wrongTurn))
	testutil.AssertEqual(t, wrongTurn.Kind, engine.WrongTurn)
	black := engine.Black
	testutil.AssertEqual(t, wrongTurn.Details, &engine.ValidationError{Kind: engine.WrongTurn, ExpectedPlayer: &black})

	send(t, bob, ws.MessageType("dance"), struct{}{})
	var unknown ws.ErrorPayload
	testutil.AssertNoError(t, json.Unmarshal(readUntil(t, bob, ws.MessageTypeError, nil), &unknown))
	testutil.AssertEqual(t, unknown.Kind, ws.ErrorKindRequest)

	send(t, bob, ws.MessageTypeResign, struct{}{})
	finished := func(p json.RawMessage) bool {
		var state model.GameState
		return json.Unmarshal(p, &state) == nil && state.Status == engine.StatusFinished
	}
	var state model.GameState
	testutil.AssertNoError(t, json.Unmarshal(readUntil(t, alice, ws.MessageTypeGameState, finished), &state))
	testutil.AssertEqual(t, state.Result, &model.Result{State: engine.WhiteWins, Reason: engine.ReasonResignation})
}

func TestGameSocketRejectsOutsider(t *testing.T) {
	base, gs := startServer(t, service.Settings{MatchmakingTick: time.Hour})
	gameID, err := gs.CreateGame("alice", service.NewGameOptions{})
	testutil.AssertNoError(t, err)
	for _, p := range []string{"alice", "bob"} {
		_, err := gs.JoinGame(gameID, p)
		testutil.AssertNoError(t, err)
	}

	carol := dial(t, base+"/ws/game/"+gameID+"?playerId=carol")
	var payload ws.ErrorPayload
	testutil.AssertNoError(t, json.Unmarshal(readUntil(t, carol, ws.MessageTypeError, nil), &payload))
	testutil.AssertEqual(t, payload.Kind, ws.ErrorKindRequest)
}

func TestMatchmakingSocket(t *testing.T) {
	base, gs := startServer(t, service.Settings{MatchmakingTick: 10 * time.Millisecond})

	alice := dial(t, base+"/ws/matchmaking?playerId=alice")
	bob := dial(t, base+"/ws/matchmaking?playerId=bob")

	var events []model.MatchFoundEvent
	for _, conn := range []*fastws.Conn{alice, bob} {
		var ev model.MatchFoundEvent
		testutil.AssertNoError(t, json.Unmarshal(readUntil(t, conn, ws.MessageTypeMatchFound, nil), &ev))
		events = append(events, ev)
	}
	testutil.AssertEqual(t, events[0].GameID, events[1].GameID)
	if events[0].Color == events[1].Color {
		t.Errorf("both players got %s", events[0].Color)
	}

	state, err := gs.GetGameState(events[0].GameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Status, engine.StatusActive)
}
