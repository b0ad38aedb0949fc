package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/viper"

	"github.com/courtside/pong-backend/internal/auth"
	"github.com/courtside/pong-backend/internal/events"
	"github.com/courtside/pong-backend/internal/game"
	"github.com/courtside/pong-backend/internal/pkg/database"
	"github.com/courtside/pong-backend/internal/pkg/kafka"
	"github.com/courtside/pong-backend/internal/pkg/redis"
	"github.com/courtside/pong-backend/internal/store"
	"github.com/courtside/pong-backend/internal/ticket"
)

func main() {
	// --- Configuration Loading ---
	viper.SetConfigName("pong-server")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/development")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Failed to read configuration file", "error", err)
		os.Exit(1)
	}

	// --- Ticket Store (Redis when configured, in-process otherwise) ---
	var ticketStore ticket.Store
	if addr := viper.GetString("redis.addr"); addr != "" {
		rdb, err := redis.NewClient(redis.Config{
			Addr:     addr,
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("Redis connection successful.")
		ticketStore = ticket.NewRedisStore(rdb)
	} else {
		slog.Warn("No Redis configured; tickets are held in process memory")
		ticketStore = ticket.NewMemoryStore()
	}

	// --- Match Persistence (optional) ---
	recorder := store.Recorder(store.NopRecorder{})
	if viper.GetString("database.host") != "" {
		dbConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			viper.GetString("database.host"),
			viper.GetString("database.port"),
			viper.GetString("database.user"),
			viper.GetString("database.password"),
			viper.GetString("database.db_name"),
			viper.GetString("database.ssl_mode"),
		)
		db, err := database.NewPostgresDB(dbConnStr)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("Database connection successful.")
		recorder = store.NewPostgresRecorder(db)
	}

	// --- Match Event Publishing (optional) ---
	notifier := game.Notifier(game.NopNotifier{})
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, viper.GetString("kafka.match_events_topic"))
		publisher := events.NewPublisher(producer)
		defer publisher.Close()
		notifier = publisher
		slog.Info("Kafka match event publishing enabled", "brokers", brokers)
	}

	// --- Dependency Injection ---
	verifier := auth.NewVerifier(viper.GetString("auth.jwt_secret"))
	issuer := ticket.NewIssuer(ticketStore, ticketTTLFromViper())

	registry := game.NewRegistry(gameConfigFromViper(), ticketStore, recorder, notifier)

	ticketHandler := ticket.NewHTTPHandler(verifier, issuer, recorder, viper.GetString("auth.cookie_name"))
	wsHandler := game.NewWSHandler(registry)

	// --- HTTP Router and Middleware Setup ---
	// No request timeout middleware: the game route holds its connection
	// open for the whole match.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/game/pong/new", ticketHandler.HandleNewGame)
	r.Get("/game/ws/pong/{roomID}/{name}", wsHandler.ServeHTTP)

	slog.Info("All routes initialized.")

	// --- HTTP Server Initialization and Graceful Shutdown ---
	httpPort := viper.GetString("http_server.port")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", httpPort),
		Handler: r,
	}

	go func() {
		slog.Info("Pong server starting...", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down pong server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown:", "error", err)
	}

	slog.Info("Pong server stopped.")
}

// Duration keys are plain numbers in the config; the unit lives in the
// key name.
func ticketTTLFromViper() time.Duration {
	return time.Duration(viper.GetInt("ticket.ttl_seconds")) * time.Second
}

func gameConfigFromViper() game.Config {
	return game.Config{
		StartDelay:     time.Duration(viper.GetInt("game.start_delay_seconds")) * time.Second,
		RoundDelay:     time.Duration(viper.GetInt("game.round_delay_seconds")) * time.Second,
		RoundsToWin:    viper.GetInt("game.rounds_to_win"),
		TickInterval:   time.Duration(viper.GetInt("game.tick_ms")) * time.Millisecond,
		ResyncInterval: time.Duration(viper.GetInt("game.resync_ms")) * time.Millisecond,
		Physics: game.Settings{
			FieldWidth:  viper.GetFloat64("game.field_width"),
			FieldDepth:  viper.GetFloat64("game.field_depth"),
			PaddleWidth: viper.GetFloat64("game.paddle_width"),
			BallSpeed:   viper.GetFloat64("game.ball_speed"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("http_server.port", "8080")
	viper.SetDefault("auth.cookie_name", "session_token")
	viper.SetDefault("ticket.ttl_seconds", 60)
	viper.SetDefault("game.start_delay_seconds", 3)
	viper.SetDefault("game.round_delay_seconds", 2)
	viper.SetDefault("game.rounds_to_win", 3)
	viper.SetDefault("game.tick_ms", 50)
	viper.SetDefault("game.resync_ms", 1000)
	viper.SetDefault("game.field_width", 20)
	viper.SetDefault("game.field_depth", 30)
	viper.SetDefault("game.paddle_width", 5)
	viper.SetDefault("game.ball_speed", 8)
}
