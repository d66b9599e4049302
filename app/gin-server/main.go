package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/providers/avatar"
	"github.com/yoockh/yoointerview/internal/providers/face"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/workers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional backends: a missing env var disables the feature.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if err := config.InitRedis(cfg); err != nil {
			log.WithError(err).Fatal("redis init failed")
		}
		rdb = config.RedisClient
		defer rdb.Close()
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_ADDR not set: summary cache in memory, audio chunks transcribed inline")
	}

	var reports mongorepo.ReportRepository
	if cfg.MongoURI != "" {
		if err := config.InitMongo(cfg); err != nil {
			log.WithError(err).Fatal("mongodb init failed")
		}
		if err := config.EnsureMongoIndexes(cfg); err != nil {
			log.WithError(err).Warn("mongodb index setup failed")
		}
		defer func() { _ = config.MongoClient.Disconnect(context.Background()) }()
		reports = mongorepo.NewReportRepo(config.MongoDatabase(cfg))
		log.Info("mongodb connected")
	} else {
		log.Warn("MONGO_URI not set: report archive disabled")
	}

	var turns pgrepo.TurnRepo
	if cfg.PostgresURI != "" {
		if err := config.InitPostgres(cfg); err != nil {
			log.WithError(err).Fatal("postgres init failed")
		}
		turns = pgrepo.NewTurnRepo(config.PostgresDB)
		log.Info("postgres connected")
	} else {
		log.Warn("POSTGRES_URI not set: turn archive disabled")
	}

	var uploader storage.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GoogleCredsFile)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		defer gcs.Close()
		uploader = gcs
	}

	var reportCache cache.Cache = cache.NewMemoryCache()
	if rdb != nil {
		reportCache = cache.NewRedisCache(rdb)
	}

	// Providers
	llmProvider, err := newLLMProvider(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("llm provider init failed")
	}
	defer llmProvider.Close()

	sttProvider, err := newSTTProvider(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("stt provider init failed")
	}
	defer sttProvider.Close()

	var classifier face.Classifier = face.NewDisabled()
	if cfg.FaceAnalyzerURL != "" {
		classifier = face.NewHTTPClassifier(cfg.FaceAnalyzerURL, log)
	} else {
		log.Warn("FACE_ANALYZER_URL not set: every frame reports no face")
	}

	labels := interview.EngagementLabels{Positive: cfg.EngagementPositive, Negative: cfg.EngagementNegative}
	if unknown := labels.Unknown(); len(unknown) > 0 {
		log.WithField("labels", unknown).Warn("engagement labels the face classifier never emits")
	}
	aggregator := interview.NewAggregator(labels)

	// Services
	gwCfg := services.GatewayConfig{Timeout: cfg.LLMTimeout, HistoryLimit: cfg.LLMHistoryLimit}
	interviewSvc := services.NewInterviewService(services.InterviewDeps{
		Store:      memory.NewSessionStore(),
		NewGateway: func() services.LLMGateway { return services.NewLLMGateway(llmProvider, log, gwCfg) },
		Aggregator: aggregator,
		Limits:     interview.DurationLimits{Min: cfg.InterviewMinMinutes, Max: cfg.InterviewMaxMinutes},
		Reports:    reports,
		Turns:      turns,
		Cache:      reportCache,
		Log:        log,
	})
	emotionSvc := services.NewEmotionService(classifier, aggregator, log)
	transcriptionSvc := services.NewTranscriptionService(sttProvider, uploader, cfg.MaxAudioBytes(), cfg.STTLanguage, log)
	avatarSvc := services.NewAvatarService(avatar.NewDID(cfg.DIDAPIURL, cfg.DIDAPIKey, cfg.DIDSourceURL), nil, log)

	audioPool := &workers.AudioWorkerPool{
		Redis:       rdb,
		Transcriber: transcriptionSvc,
		Logger:      log,
	}
	if err := audioPool.Start(ctx); err != nil {
		log.WithError(err).Fatal("audio worker pool failed to start")
	}
	evictor := &workers.SessionEvictor{Sessions: interviewSvc, TTL: cfg.ConcludedSessionTTL, Logger: log}
	go evictor.Run(ctx)

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log, "/health", "/ping"))

	var auth *middleware.JWTConfig
	if cfg.AuthEnabled {
		auth = &middleware.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}
	}
	routes.RegisterRoutes(r, routes.Deps{
		Interview:   handlers.NewInterviewHandler(interviewSvc),
		Audio:       handlers.NewAudioHandler(transcriptionSvc),
		Emotion:     handlers.NewEmotionHandler(emotionSvc, interviewSvc),
		Avatar:      handlers.NewAvatarHandler(avatarSvc),
		WS:          handlers.NewWSHandler(interviewSvc, emotionSvc, audioPool, rdb, cfg.CORSOrigins, cfg.MaxAudioBytes(), log),
		CORSOrigins: cfg.CORSOrigins,
		Auth:        auth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Port,
			"llm":  llmProvider.Name(),
			"stt":  sttProvider.Name(),
			"face": classifier.Name(),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func newLLMProvider(ctx context.Context, cfg *config.Settings) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "vertex":
		if cfg.VertexProjectID == "" {
			return nil, errors.New("VERTEX_PROJECT_ID is not set")
		}
		v, err := llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel, cfg.GoogleCredsFile)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout), nil
	default:
		return nil, errors.New("unknown LLM_PROVIDER: " + cfg.LLMProvider)
	}
}

func newSTTProvider(ctx context.Context, cfg *config.Settings) (stt.Provider, error) {
	switch cfg.STTProvider {
	case "google":
		g, err := stt.NewGoogleSpeech(ctx, cfg.GoogleCredsFile)
		if err != nil {
			return nil, err
		}
		if cfg.STTLanguage != "" {
			g.DefaultLanguage = cfg.STTLanguage
		}
		return g, nil
	case "whisper", "":
		return stt.NewWhisper(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.WhisperModel), nil
	default:
		return nil, errors.New("unknown STT_PROVIDER: " + cfg.STTProvider)
	}
}
