package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/config"
	"github.com/yoockh/barta/internal/api/handlers"
	"github.com/yoockh/barta/internal/api/middleware"
	"github.com/yoockh/barta/internal/api/routes"
	"github.com/yoockh/barta/internal/audio"
	"github.com/yoockh/barta/internal/cache"
	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/live"
	"github.com/yoockh/barta/internal/logger"
	"github.com/yoockh/barta/internal/providers/llm"
	"github.com/yoockh/barta/internal/providers/realtime"
	"github.com/yoockh/barta/internal/providers/stt"
	"github.com/yoockh/barta/internal/repositories"
	mongorepo "github.com/yoockh/barta/internal/repositories/mongo"
	pgrepo "github.com/yoockh/barta/internal/repositories/postgres"
	"github.com/yoockh/barta/internal/repositories/sqlite"
	"github.com/yoockh/barta/internal/services"
	"github.com/yoockh/barta/internal/storage"
	"github.com/yoockh/barta/internal/workers"
)

type stores struct {
	templates repositories.TemplateRepository
	triggers  repositories.TriggerRepository
	tasks     repositories.TaskRepository
	calls     repositories.CallLogRepository
	messages  repositories.MessageRepository
}

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, log, cfg)

	// Redis is optional: without it events stay in-process, follow-ups run
	// inline and suggestions are not cached.
	var (
		bus       events.Bus = events.NewLocalBus()
		sugCache  cache.Cache
		followUps services.FollowUpQueue
	)
	if err := config.InitRedis(); err != nil {
		logOptional(log, "redis", err)
	} else {
		log.Info("Redis connected")
		bus = events.NewRedisBus(config.RedisClient, "")
		sugCache = cache.NewRedisCache(config.RedisClient, "barta")
		followUps = &workers.FollowUpQueue{Redis: config.RedisClient, MaxLen: 10000}
	}

	text, embedder := openLLM(ctx, log, cfg)
	if text != nil {
		defer text.Close()
	}

	var recognizer stt.Provider
	if cfg.STTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx, audio.InputSampleRate)
		if err != nil {
			log.WithError(err).Warn("speech recognition disabled")
		} else {
			defer gs.Close()
			recognizer = gs
		}
	}

	var (
		archive storage.RecordingArchive
		signer  storage.Signer
	)
	if cfg.GCSBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.GCSBucket)
		if err != nil {
			log.WithError(err).Warn("recording archive disabled")
		} else {
			defer up.Close()
			archive = &storage.Recordings{Uploader: up}
			signer = up
		}
	}

	state := services.NewConsoleState()
	assistant := services.NewAssistantService(text, sugCache, log)
	knowledge := services.NewKnowledgeService(st.templates, st.triggers, st.tasks)
	if err := knowledge.Seed(ctx); err != nil {
		log.WithError(err).Fatal("knowledge base seed failed")
	}
	followUpSvc := services.NewFollowUpService(assistant, knowledge)
	if followUps == nil {
		followUps = &services.InlineFollowUpQueue{Service: followUpSvc, Logger: log}
	} else {
		pool := &workers.FollowUpWorkerPool{Redis: config.RedisClient, FollowUps: followUpSvc, Logger: log}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("follow-up workers failed to start")
		}
	}

	calls := services.NewCallLogService(services.CallLogDeps{
		Logs:      st.calls,
		Assistant: assistant,
		FollowUps: followUps,
		Archive:   archive,
		Signer:    signer,
		Events:    bus,
		Logger:    log,
	})
	chat := services.NewChatService(services.ChatDeps{
		Messages:  st.messages,
		Knowledge: knowledge,
		Assistant: assistant,
		State:     state,
		Embedder:  embedder,
		Events:    bus,
		Logger:    log,
	})
	orch := live.NewOrchestrator(live.Deps{
		Connector: realtime.NewGeminiLive(cfg.GeminiAPIKey),
		Templates: knowledge,
		State:     state,
		Assistant: assistant,
		Calls:     calls,
		Events:    bus,
		Logger:    log,
		Model:     cfg.GeminiLiveModel,
		Voice:     cfg.GeminiVoice,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:      middleware.AuthConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience},
		Knowledge: handlers.NewKnowledgeHandler(knowledge),
		Chat:      handlers.NewChatHandler(chat, state),
		Calls:     handlers.NewCallHandler(calls, services.NewStatsService(knowledge, calls)),
		Dictation: handlers.NewDictationHandler(services.NewDictationService(recognizer)),
		WS:        handlers.NewWSHandler(orch, bus, log, cfg.WSAllowedOrigins),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	orch.Terminate()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}

func openStores(ctx context.Context, log *logrus.Logger, cfg config.App) stores {
	var st stores

	var local *sqlite.Store
	openLocal := func() *sqlite.Store {
		if local == nil {
			s, err := sqlite.Open(cfg.SQLitePath)
			if err != nil {
				log.WithError(err).Fatal("SQLite open error")
			}
			local = s
		}
		return local
	}

	switch cfg.StoreDriver {
	case "mongo":
		if err := config.InitMongo(); err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Fatal("MongoDB index error")
		}
		log.Info("MongoDB connected")
		db := config.MongoDatabase()
		st.templates = mongorepo.NewTemplateRepo(db)
		st.triggers = mongorepo.NewTriggerRepo(db)
		st.tasks = mongorepo.NewTaskRepo(db)
		st.calls = mongorepo.NewCallLogRepo(db)
	default:
		s := openLocal()
		st.templates = sqlite.NewTemplateRepo(s)
		st.triggers = sqlite.NewTriggerRepo(s)
		st.tasks = sqlite.NewTaskRepo(s)
		st.calls = sqlite.NewCallLogRepo(s)
		log.WithField("path", cfg.SQLitePath).Info("SQLite knowledge base opened")
	}

	if err := config.InitPostgres(); err != nil {
		logOptional(log, "postgres", err)
	} else if err := pgrepo.Migrate(ctx, config.PostgresDB); err != nil {
		log.WithError(err).Fatal("PostgreSQL migrate error")
	} else {
		log.Info("PostgreSQL connected")
		st.messages = pgrepo.NewMessageRepo(config.PostgresDB)
	}
	if st.messages == nil {
		repo, err := sqlite.NewMessageRepo(openLocal())
		if err != nil {
			log.WithError(err).Fatal("SQLite message table error")
		}
		st.messages = repo
	}
	return st
}

func openLLM(ctx context.Context, log *logrus.Logger, cfg config.App) (llm.Provider, llm.Embedder) {
	switch cfg.LLMBackend {
	case "vertex":
		v, err := llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.GeminiTextModel)
		if err != nil {
			log.WithError(err).Warn("text generation disabled, replies fall back")
			return nil, nil
		}
		return v, nil
	default:
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set, replies fall back")
			return nil, nil
		}
		g, err := llm.NewGenAIGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel)
		if err != nil {
			log.WithError(err).Warn("text generation disabled, replies fall back")
			return nil, nil
		}
		return g, g
	}
}

func logOptional(log *logrus.Logger, name string, err error) {
	if errors.Is(err, config.ErrNotConfigured) {
		log.WithField("backend", name).Info("not configured, skipping")
		return
	}
	log.WithError(err).WithField("backend", name).Warn("unavailable, skipping")
}
