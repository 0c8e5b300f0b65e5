package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rag-brand-guard/internal/backend"
	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/common/aws"
	"rag-brand-guard/internal/common/config"
	"rag-brand-guard/internal/common/database"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/corpus"
	"rag-brand-guard/internal/diagnostics"
	"rag-brand-guard/internal/notify"
	"rag-brand-guard/internal/orchestrator"
)

// services holds everything the workers share. Postgres, Redis,
// Elasticsearch and SNS are optional; a missing one disables its feature.
type services struct {
	cfg *config.Config
	log logger.Logger
	obs *observability.Observability

	core         *brand.Core
	backend      backend.Querier
	orchestrator *orchestrator.Orchestrator

	postgres *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
	indexer  *corpus.Indexer
}

func enhancerOptions(cfg *config.Config) enhancer.Options {
	return enhancer.Options{
		DefaultMaxChunks:           cfg.Backend.DefaultMaxChunks,
		DefaultSimilarityThreshold: cfg.Backend.DefaultSimilarityThreshold,
		BoostedMaxChunks:           cfg.Enhancement.BoostedMaxChunks,
		LoweredSimilarityThreshold: cfg.Enhancement.LoweredSimilarityThreshold,
		MarketQualifier:            cfg.Enhancement.MarketQualifier,
	}
}

func buildServices(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, obs *observability.Observability) (*services, error) {
	log := logger.NewZapAdapter(zapLog)
	s := &services{cfg: cfg, log: log, obs: obs}

	core, err := brand.Load(cfg.Catalog.RegistryPath, enhancerOptions(cfg))
	if err != nil {
		return nil, err
	}
	s.core = core
	zapLog.Info("entity registry loaded",
		zap.String("version", core.Catalog.Version()),
		zap.Int("entities", len(core.Registry.Entities)),
		zap.Int("lowCoverage", core.Catalog.Len()),
	)

	client, err := backend.NewClient(&backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		QueryPath:    cfg.Backend.QueryPath,
		APIKey:       cfg.Backend.APIKey,
		Timeout:      config.GetDuration(cfg.Backend.Timeout),
		MaxRetries:   cfg.Backend.MaxRetries,
		RetryBackoff: 500 * time.Millisecond,
	}, log.WithFields(map[string]interface{}{"component": "backend"}))
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	s.backend = client

	if cfg.Database.Redis.Configured() && cfg.Backend.CacheTTL > 0 {
		if s.redis, err = s.connectRedis(ctx); err != nil {
			zapLog.Warn("backend cache disabled", zap.Error(err))
		} else {
			ttl := time.Duration(cfg.Backend.CacheTTL) * time.Second
			s.backend = backend.NewCachedClient(client, s.redis.Client, ttl, log.WithFields(map[string]interface{}{"component": "backend-cache"}))
			zapLog.Info("backend cache enabled", zap.Duration("ttl", ttl))
		}
	}

	recorder := s.buildRecorder(ctx, zapLog)
	notifier := s.buildNotifier(ctx, zapLog)

	opts := orchestrator.Options{
		Backend:        s.backend,
		Observability:  obs,
		Logger:         log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		EnableWidening: cfg.Enhancement.EnableWidening,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	if s.orchestrator, err = orchestrator.New(core, opts); err != nil {
		return nil, err
	}

	s.indexer = s.buildIndexer(ctx, zapLog)
	return s, nil
}

func (s *services) connectRedis(ctx context.Context) (*database.RedisClient, error) {
	rc, err := database.NewRedis(s.cfg.Database.Redis)
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		rc.Close()
		return nil, errors.NewCacheUnavailableError(err)
	}
	return rc, nil
}

func (s *services) buildRecorder(ctx context.Context, zapLog *zap.Logger) *diagnostics.Recorder {
	if !s.cfg.Diagnostics.Enabled || !s.cfg.Database.Postgres.Configured() {
		zapLog.Info("diagnostics persistence disabled")
		return nil
	}

	pg, err := database.NewPostgres(ctx, s.cfg.Database.Postgres)
	if err != nil {
		zapLog.Warn("diagnostics persistence disabled", zap.Error(err))
		return nil
	}

	recorder, err := diagnostics.NewRecorder(pg.DB, s.cfg.Diagnostics.Table, s.log)
	if err == nil {
		err = recorder.EnsureSchema(ctx)
	}
	if err != nil {
		pg.Close()
		zapLog.Warn("diagnostics persistence disabled", zap.Error(err))
		return nil
	}

	s.postgres = pg
	zapLog.Info("diagnostics persistence enabled", zap.String("table", s.cfg.Diagnostics.Table))
	return recorder
}

func (s *services) buildNotifier(ctx context.Context, zapLog *zap.Logger) *notify.CoverageGapNotifier {
	gaps := s.cfg.Notifications.CoverageGaps
	if !gaps.Enabled {
		return nil
	}

	client, err := aws.NewSNSClient(ctx, s.cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Warn("coverage gap alerts disabled", zap.Error(err))
		return nil
	}
	notifier, err := notify.NewCoverageGapNotifier(client, gaps.TopicARN, s.log)
	if err != nil {
		zapLog.Warn("coverage gap alerts disabled", zap.Error(err))
		return nil
	}
	zapLog.Info("coverage gap alerts enabled", zap.String("topicArn", gaps.TopicARN))
	return notifier
}

func (s *services) buildIndexer(ctx context.Context, zapLog *zap.Logger) *corpus.Indexer {
	if !s.cfg.Database.Elasticsearch.Configured() {
		zapLog.Info("corpus indexing disabled")
		return nil
	}

	es, err := database.NewElasticsearch(s.cfg.Database.Elasticsearch)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = es.Ping(pingCtx)
		cancel()
	}
	if err != nil {
		zapLog.Warn("corpus indexing disabled", zap.Error(err))
		return nil
	}

	indexer := corpus.NewIndexer(es.Client, s.core.Normalizer, s.cfg.Corpus.Index, s.log.WithFields(map[string]interface{}{"component": "corpus"}))
	if err := indexer.EnsureIndex(ctx, s.cfg.Corpus.Index); err != nil {
		zapLog.Warn("corpus index not ready", zap.String("index", s.cfg.Corpus.Index), zap.Error(err))
	}
	s.es = es
	return indexer
}

// ready reports the first unavailable dependency.
func (s *services) ready(ctx context.Context) error {
	if s.postgres != nil {
		if err := s.postgres.Ping(ctx); err != nil {
			return err
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			return err
		}
	}
	if s.es != nil {
		if err := s.es.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *services) close() {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}
