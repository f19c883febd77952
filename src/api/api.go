package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	aicore "github.com/stake-plus/crowdfund/src/ai/core"
	_ "github.com/stake-plus/crowdfund/src/ai/providers"
	"github.com/stake-plus/crowdfund/src/api/assistant"
	"github.com/stake-plus/crowdfund/src/api/auth"
	"github.com/stake-plus/crowdfund/src/api/blogs"
	"github.com/stake-plus/crowdfund/src/api/config"
	"github.com/stake-plus/crowdfund/src/api/data"
	"github.com/stake-plus/crowdfund/src/api/events"
	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/store/memstore"
	"github.com/stake-plus/crowdfund/src/api/store/mongostore"
	"github.com/stake-plus/crowdfund/src/api/store/sqlstore"
	"github.com/stake-plus/crowdfund/src/api/telemetry"
	"github.com/stake-plus/crowdfund/src/api/updates"
	"github.com/stake-plus/crowdfund/src/api/uploads"
	"github.com/stake-plus/crowdfund/src/api/webserver"
	"github.com/stake-plus/crowdfund/src/logging"
)

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using the in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "mysql", "postgres":
		connect := data.ConnectMySQL
		dsn := cfg.MySQLDSN
		if cfg.StoreDriver == "postgres" {
			connect, dsn = data.ConnectPostgres, cfg.PostgresDSN
		}
		db, err := connect(dsn, log)
		if err != nil {
			return nil, err
		}
		st := sqlstore.New(db)
		if err := st.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return st, nil
	default:
		db, err := data.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		st := mongostore.New(db)
		if err := st.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, nil
	}
}

func openUploads(ctx context.Context, cfg config.Config) (uploads.Store, error) {
	if cfg.UploadBackend == "s3" {
		return uploads.NewS3Store(ctx, uploads.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
		})
	}
	return uploads.NewLocalStore(cfg.UploadDir)
}

func openPublishers(cfg config.Config, rdb *redis.Client, log *zap.Logger) events.Publisher {
	var pubs events.Multi
	if rdb != nil {
		pubs = append(pubs, events.NewRedisStream(rdb))
	}
	if len(cfg.KafkaBrokers) > 0 {
		pubs = append(pubs, events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic))
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		d, err := events.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID, cfg.SiteURL)
		if err != nil {
			log.Warn("discord announcements disabled", zap.Error(err))
		} else {
			pubs = append(pubs, d)
		}
	}
	if len(pubs) == 0 {
		return events.Nop{}
	}
	return pubs
}

func newAssistant(cfg config.Config, rdb *redis.Client, log *zap.Logger) *assistant.Service {
	client, err := aicore.NewClient(aicore.FactoryConfig{
		Provider:     cfg.AIProvider,
		Model:        cfg.AIModel,
		SystemPrompt: cfg.AISystemPrompt,
		Temperature:  0.3,
		Timeout:      cfg.AITimeout,
		OpenAIKey:    cfg.OpenAIKey,
		GeminiKey:    cfg.GeminiKey,
		ClaudeKey:    cfg.ClaudeKey,
		DeepSeekKey:  cfg.DeepSeekKey,
		GrokKey:      cfg.GrokKey,
	})
	if err != nil {
		log.Warn("assistant upstream disabled", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}

	var cache assistant.Cache
	if rdb != nil {
		cache = assistant.NewRedisCache(rdb)
	}
	return assistant.NewService(client, cache, assistant.Config{
		SystemPrompt: cfg.AISystemPrompt,
		Timeout:      cfg.AITimeout,
		CacheTTL:     cfg.AICacheTTL,
	}, log)
}

func run(log *zap.Logger, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.OTELServiceName, cfg.Environment)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}

	images, err := openUploads(ctx, cfg)
	if err != nil {
		return fmt.Errorf("uploads: %w", err)
	}

	pub := openPublishers(cfg, rdb, log)

	var limiter webserver.Limiter
	if cfg.AIRateLimit > 0 {
		if rdb != nil {
			limiter = webserver.NewRedisLimiter(rdb, cfg.AIRateLimit, time.Minute)
		} else {
			limiter = webserver.NewRateLimiter(ctx, cfg.AIRateLimit, time.Minute)
		}
	}

	tokens := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	router := webserver.New(webserver.Deps{
		Log:         log,
		Production:  cfg.IsProduction(),
		Auth:        auth.NewService(st, tokens, log),
		Tokens:      tokens,
		Blogs:       blogs.NewService(st, images, pub, log),
		Posts:       updates.NewService(st, images, pub, log),
		Assistant:   newAssistant(cfg, rdb, log),
		Images:      images,
		Limiter:     limiter,
		Metrics:     telemetry.NewMetrics(),
		CORSOrigins: cfg.CORSOrigins,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telemetry.WrapHandler(router, "crowdfund-api"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.EnableSSL {
			var reloader *webserver.TLSReloader
			reloader, err = webserver.NewTLSReloader(ctx, cfg.SSLCert, cfg.SSLKey, log)
			if err == nil {
				httpSrv.TLSConfig = reloader.Config()
				log.Info("CrowdFund API listening (TLS)", zap.String("port", cfg.Port))
				err = httpSrv.ListenAndServeTLS("", "")
			}
		} else {
			log.Info("CrowdFund API listening", zap.String("port", cfg.Port))
			err = httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
	}

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := pub.Close(); err != nil {
		log.Warn("closing event publishers", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := st.Close(shutCtx); err != nil {
		log.Warn("closing store", zap.Error(err))
	}
	if err := shutdownTracing(shutCtx); err != nil {
		log.Warn("flushing traces", zap.Error(err))
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log, cfg); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}
