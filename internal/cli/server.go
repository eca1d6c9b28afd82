package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asd-screening-service/internal/app"
	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/config"
	"asd-screening-service/internal/detection"
	"asd-screening-service/internal/game"
	"asd-screening-service/internal/infra/memory"
	pgloader "asd-screening-service/internal/infra/postgres"
	redisstore "asd-screening-service/internal/infra/redis"
	"asd-screening-service/internal/logging"
	"asd-screening-service/internal/scoring"
	transport "asd-screening-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the screening server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	engine, err := scoring.New(cfg.ScoringConfig())
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(bank.Default())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankID := cfg.Bank.ID
	if bankID == "" {
		bankID = bank.DefaultID
	}
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	autoStartTTL := config.TTLDuration(cfg.Game.AutoStartTTL, time.Minute)

	var (
		banks       app.BankRepository
		flows       app.FlowRepository
		controllers app.ControllerRepository
		signals     app.AutoStartSignals
	)
	if redisClient != nil {
		banks = redisstore.NewBankRepository(redisClient, loader, bankTTL)
		flows = redisstore.NewFlowStore(redisClient, redisTTL)
		controllers = redisstore.NewControllerStore(redisClient, redisTTL)
		signals = redisstore.NewSignalStore(redisClient, autoStartTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
		flows = memory.NewFlowStore()
		controllers = memory.NewControllerStore()
		signals = memory.NewSignalStore(autoStartTTL)
	}

	detector := detection.NewClient(detection.Config{
		BaseURL:   cfg.Detection.BaseURL,
		StartPath: cfg.Detection.StartPath,
		StopPath:  cfg.Detection.StopPath,
		Timeout:   config.TTLDuration(cfg.Detection.Timeout, 10*time.Second),
	})

	questionnaire := app.NewQuestionnaireService(flows, banks, bankID, engine)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go questionnaire.RunSweeper(sweepCtx, config.TTLDuration(cfg.Questionnaire.IdleTTL, 30*time.Minute), time.Minute, logger)
	games := app.NewGameService(detector, controllers, signals, game.Options{
		Duration:    config.TTLDuration(cfg.Game.Duration, game.DefaultDuration),
		StopTimeout: config.TTLDuration(cfg.Game.StopTimeout, game.DefaultStopTimeout),
		Logger:      logger,
	})

	router := transport.NewRouter(transport.Handlers{
		Questionnaire: transport.NewQuestionnaireHandler(questionnaire, logger),
		Games:         transport.NewGameHandler(games, logger),
		Health:        transport.NewHealthHandler(detector),
		Auth:          transport.HeaderAuthenticator{Header: cfg.Auth.UserHeader},
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting screening service", "port", finalPort, "detection", cfg.Detection.BaseURL, "redis", redisClient != nil, "postgres", pool != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
