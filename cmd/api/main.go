package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ZaidMomin2003/talxify/backend/internal/config"
	"github.com/ZaidMomin2003/talxify/backend/internal/events"
	"github.com/ZaidMomin2003/talxify/backend/internal/handler"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	aiservice "github.com/ZaidMomin2003/talxify/backend/internal/service/ai"
	assessmentservice "github.com/ZaidMomin2003/talxify/backend/internal/service/assessment"
	interviewservice "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
	speechservice "github.com/ZaidMomin2003/talxify/backend/internal/service/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	interviewerStore := interviewer.NewMemoryStore(interviewer.Seed())
	sessionService := interviewservice.NewService()

	var aiService *aiservice.Service
	if cfg.AI.Enabled() {
		aiService, err = aiservice.NewService(ctx, interviewerStore, cfg.AI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize AI service")
		}
		log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
	} else if cfg.AllowDegraded {
		log.Warn().Msg("model credentials not configured, interview conduct disabled")
	} else {
		log.Fatal().Msg("model credentials missing: set ARK_API_KEY and ARK_MODEL, or ALLOW_DEGRADED=true to run without interview conduct")
	}

	var assessmentSvc *assessmentservice.Service
	if aiService != nil {
		assessmentSvc, err = assessmentservice.NewService(ctx, aiService.ChatModel(), assessmentservice.Config{
			Enabled: true,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize assessment service")
		}
	}

	var speechService *speechservice.Service
	if cfg.Speech.Enabled {
		speechService = speechservice.NewService(&speechmodel.ProviderConfig{
			AppID:         cfg.Speech.AppID,
			AccessToken:   cfg.Speech.AccessToken,
			APIKey:        cfg.Speech.APIKey,
			BaseURL:       cfg.Speech.BaseURL,
			ASRModel:      cfg.Speech.ASRModel,
			ASRLanguage:   cfg.Speech.ASRLanguage,
			SampleRate:    cfg.Speech.SampleRate,
			TTSVoice:      cfg.Speech.TTSVoice,
			TTSSpeed:      cfg.Speech.TTSSpeed,
			TTSVolume:     cfg.Speech.TTSVolume,
			TTSLanguage:   cfg.Speech.TTSLanguage,
			TTSSampleRate: cfg.Speech.TTSSampleRate,
			Timeout:       cfg.Speech.Timeout,
		})
		log.Info().Msg("speech service initialized")
	} else if cfg.AllowDegraded {
		log.Warn().Msg("speech credentials not configured, voice mode disabled")
	} else {
		log.Fatal().Msg("speech credentials missing: set SPEECH_APP_ID and SPEECH_ACCESS_TOKEN, or ALLOW_DEGRADED=true to run text-only")
	}

	var dataStore store.Store
	if cfg.Store.Enabled() {
		mongoStore, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to document store")
		}
		dataStore = mongoStore
		log.Info().Str("database", cfg.Store.Database).Msg("document store connected")
	} else {
		dataStore = store.NewMemoryStore()
		log.Warn().Msg("MONGO_URI not set, using in-memory store")
	}

	publisher := events.New(cfg.Events)

	obsServer := observability.NewServer(cfg.Server.ObservabilityAddr)
	obsServer.Start()

	router := handler.NewRouter(handler.Services{
		Interviewers: interviewerStore,
		Sessions:     sessionService,
		AI:           aiService,
		Speech:       speechService,
		Assessment:   assessmentSvc,
		Store:        dataStore,
		Publisher:    publisher,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", cfg.Server.Addr).Msg("talxify backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if speechService != nil {
		speechService.Cleanup()
	}
	if err := publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close event publisher")
	}
	if err := dataStore.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to stop observability server")
	}

	log.Info().Msg("shutdown complete")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
