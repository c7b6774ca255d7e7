package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circle-backend/internal/ai"
	"circle-backend/internal/api"
	"circle-backend/internal/circle"
	"circle-backend/internal/config"
	"circle-backend/internal/emotion"
	"circle-backend/internal/matching"
	"circle-backend/internal/midnight"
	"circle-backend/internal/notify"
	"circle-backend/internal/storage"
	"circle-backend/internal/voice"
	"circle-backend/internal/worker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStorage(ctx, cfg.Database.URL, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	if err := store.DB.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap database schema")
	}

	wsManager := notify.NewWSManager()
	go wsManager.Start()

	publisher := notify.NewService(store.Redis, wsManager)

	provisioner := voice.NewClient(voice.Config{
		TokenEndpoint:  cfg.Voice.TokenEndpoint,
		AppID:          cfg.Voice.AppID,
		AppCertificate: cfg.Voice.AppCertificate,
		TokenTTL:       cfg.Voice.TokenTTL,
	})

	factory := circle.NewFactory(store.DB, provisioner, publisher,
		cfg.Matching.MinCircleSize, cfg.Matching.MaxCircleSize)

	engine := matching.NewEngine(store.Redis, factory,
		cfg.Matching.MinCircleSize, cfg.Matching.MaxCircleSize)

	matchingService := circle.NewService(store.Redis, engine)

	sweeper := midnight.NewSweeper(store.DB)

	processor := worker.NewProcessor(engine, sweeper, cfg.Redis.URL,
		cfg.Matching.PassInterval, cfg.Matching.SweepInterval)
	processor.Start(ctx)
	defer processor.Stop()

	summarizer := ai.NewSummarizer(store.DB, cfg.AI.OpenAIKey, cfg.AI.SummaryModel,
		emotion.NewSimulator(time.Now().UnixNano()))

	apiService := api.NewAPIService(matchingService, store.DB, store.DB, summarizer, wsManager)
	router := api.NewRouter(apiService)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// Stop the background timers before tearing the stores down.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
