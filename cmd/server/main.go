package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/drafti/drafti-backend/internal/config"
	"github.com/drafti/drafti-backend/internal/controller"
	"github.com/drafti/drafti-backend/internal/middleware"
	"github.com/drafti/drafti-backend/internal/service"
)

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"fatal": log.LevelFatal,
	"panic": log.LevelPanic,
}

func main() {
	configPath := flag.String("config", os.Getenv("DRAFTI_CONFIG"), "path to a JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	log.SetLevel(logLevels[cfg.LogLevel])

	app := fiber.New(fiber.Config{AppName: "drafti"})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize services
	gameManager := service.NewGameManager(service.SettingsFromConfig(cfg))
	gameService := service.NewGameService(gameManager)

	// Initialize controllers
	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService)

	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins(cfg.AllowedOrigins),
	}

	// Set up WebSocket routes
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.Language(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/game/:gameId", websocket.New(wsController.HandleConnection, wsConfig))
	wsRoutes.Get("/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID(), middleware.Language())

	// Game routes
	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/legal", gameController.LegalMoves)
	gameRoutes.Post("/:gameId/resign", gameController.Resign)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			log.Errorw("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Errorw("shutdown failed", "error", err)
	}
	gameManager.Close()
}

func origins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
