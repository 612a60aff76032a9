package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dealhaus/deal-server-go/internal/bot"
	"github.com/dealhaus/deal-server-go/internal/config"
	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/repository"
	"github.com/dealhaus/deal-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting deal server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// The database is optional; without one the server keeps everything in
	// memory and match archives land on disk only.
	var matchRepo *repository.MatchRepository
	if cfg.Database.URL != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		if schemaErr := db.EnsureSchema(ctx); schemaErr != nil {
			logger.Fatal("failed to ensure database schema", zap.Error(schemaErr))
		}
		matchRepo = repository.NewMatchRepository(db)
		logger.Info("match repository initialized")
	} else {
		logger.Info("no database configured; running in memory")
	}

	engine := game.NewDealEngine(logger)
	logger.Info("deal engine initialized")

	botSeed := cfg.Game.BotSeed
	if botSeed == 0 {
		botSeed = time.Now().UnixNano()
	}
	runner := bot.NewRunner(engine, logger, botSeed)

	defaultLevel, err := bot.ParseLevel(cfg.Game.BotLevel)
	if err != nil {
		logger.Fatal("invalid bot level", zap.String("bot_level", cfg.Game.BotLevel), zap.Error(err))
	}
	logger.Info("bot runner initialized",
		zap.Stringer("default_level", defaultLevel),
		zap.Int64("seed", botSeed),
	)

	gateway := server.NewGateway(engine, runner, defaultLevel, logger)
	gateway.SetBotThinkDelay(cfg.Game.BotThinkDelay)
	gateway.SetGameOverHook(func(gameID string) {
		archiveMatch(ctx, engine, matchRepo, cfg.Game.ReplayDir, gameID, logger)
	})

	if mkErr := os.MkdirAll(cfg.Game.ReplayDir, 0o755); mkErr != nil {
		logger.Warn("failed to create replay directory",
			zap.String("dir", cfg.Game.ReplayDir),
			zap.Error(mkErr),
		)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: gateway.Handler(),
	}

	go func() {
		logger.Info("starting websocket server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("websocket server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http shutdown error", zap.Error(shutdownErr))
	}

	logger.Info("deal server stopped")
}

// archiveMatch persists a finished game: replay to disk, and result, log, and
// replay bytes to the database when one is configured.
func archiveMatch(ctx context.Context, engine *game.DealEngine, repo *repository.MatchRepository, replayDir, gameID string, logger *zap.Logger) {
	view, err := engine.GetGameView(gameID, "")
	if err != nil {
		logger.Error("failed to read finished game", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	matchLog, err := engine.MatchLog(gameID)
	if err != nil {
		logger.Error("failed to read match log", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	if saveErr := engine.SaveReplay(gameID, replayDir); saveErr != nil {
		logger.Error("failed to save replay", zap.String("game_id", gameID), zap.Error(saveErr))
	}

	if repo == nil {
		return
	}

	result := repository.MatchResult{
		GameID:    gameID,
		WinnerID:  view.WinnerID,
		TurnCount: view.TurnNumber,
		StartedAt: view.StartedAt,
	}
	if saveErr := repo.SaveResult(ctx, result, matchLog); saveErr != nil {
		logger.Error("failed to archive match result", zap.String("game_id", gameID), zap.Error(saveErr))
		return
	}

	replayPath := filepath.Join(replayDir, gameID+".replay")
	data, readErr := os.ReadFile(replayPath)
	if readErr != nil {
		logger.Warn("replay file missing; skipping database copy",
			zap.String("game_id", gameID),
			zap.Error(readErr),
		)
		return
	}
	if saveErr := repo.SaveReplay(ctx, gameID, data); saveErr != nil {
		logger.Error("failed to archive replay", zap.String("game_id", gameID), zap.Error(saveErr))
		return
	}

	logger.Info("match archived",
		zap.String("game_id", gameID),
		zap.String("winner_id", view.WinnerID),
		zap.Int("turns", view.TurnNumber),
	)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
