package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"provincie-quiz-service/internal/config"
	"provincie-quiz-service/internal/domain"
	"provincie-quiz-service/internal/infra/geometry"
	"provincie-quiz-service/internal/infra/memory"
	pgresults "provincie-quiz-service/internal/infra/postgres"
	redisinfra "provincie-quiz-service/internal/infra/redis"
	"provincie-quiz-service/internal/quiz"
	transport "provincie-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	geoSource := geometry.NewSource(
		cfg.Geometry.URL,
		config.Duration(cfg.Geometry.Timeout, 15*time.Second),
		config.Duration(cfg.Geometry.TTL, 12*time.Hour),
	)

	var writers []quiz.PhaseResultWriter
	if redisClient != nil {
		writers = append(writers, redisinfra.NewResultWriter(redisClient, redisTTL))
	}
	if pool != nil {
		writers = append(writers, pgresults.NewResultWriter(pool))
	}

	variant := domain.Variant(cfg.Quiz.Variant)
	advanceDelay := config.Duration(cfg.Quiz.AdvanceDelay, quiz.DefaultAdvanceDelay)

	factory := func(sessionID string) *quiz.Session {
		return quiz.NewSession(sessionID, quiz.Options{
			Variant:      variant,
			AdvanceDelay: advanceDelay,
			OnPhaseFinished: func(res domain.PhaseResult) {
				// Best-effort audit write; failures never reach the player.
				wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				for _, w := range writers {
					if err := w.WritePhaseResult(wctx, sessionID, res); err != nil {
						log.Printf("phase result write failed for %s: %v", sessionID, err)
					}
				}
			},
		})
	}

	var store quiz.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, factory, redisTTL)
	} else {
		store = memory.NewSessionStore(factory)
	}
	service := quiz.NewQuizService(store, geoSource)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting provincie quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
