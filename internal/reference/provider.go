package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/database"
	"github.com/analisavet/hemogram-server/internal/domain"
)

type speciesLister interface {
	Species(ctx context.Context) ([]string, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Provider is the configured reference source together with the resources
// it owns.
type Provider struct {
	// Source is the layered source the resolver consumes
	Source domain.ReferenceSource
	// Store is the writable backing store, nil for in-memory sources
	Store domain.ReferenceStore
	Kind  string

	base    domain.ReferenceSource
	cache   *CachedSource
	breaker *BreakerSource
	closers []func() error
}

// Open builds the source selected by cfg.Reference.Source. Database-backed
// sources are wrapped in a circuit breaker and a cache.
func Open(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Provider, error) {
	p := &Provider{Kind: cfg.Reference.Source}
	if p.Kind == "" {
		p.Kind = domain.ReferenceSourceStatic
	}

	switch p.Kind {
	case domain.ReferenceSourceStatic:
		p.base = NewStaticSource()
	case domain.ReferenceSourceYAML:
		src, err := LoadYAML(cfg.Reference.File)
		if err != nil {
			return nil, err
		}
		p.base = src
	case domain.ReferenceSourceSQLite:
		store, err := NewSQLiteStore(cfg.Reference.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite reference store: %w", err)
		}
		p.base, p.Store = store, store
		p.closers = append(p.closers, store.Close)
	case domain.ReferenceSourcePostgres:
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres reference store: %w", err)
		}
		store, err := NewPostgresStore(db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		p.base, p.Store = store, store
		p.closers = append(p.closers, func() error {
			db.Close()
			return nil
		})
	default:
		return nil, domain.NewValidationError("reference.source", "unsupported reference source", p.Kind)
	}

	p.Source = p.base
	if p.Store != nil {
		p.breaker = NewBreakerSource(p.base, BreakerConfig{
			Name:    "reference-" + p.Kind,
			Timeout: cfg.Reference.BreakerTimeout,
		}, logger)

		cacheConfig := CacheConfig{Size: cfg.Reference.CacheSize, TTL: cfg.Reference.CacheTTL}
		if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
			client, err := newRedisClient(cfg.Cache)
			if err != nil {
				p.Close()
				return nil, err
			}
			cacheConfig.RedisClient = client
			if cfg.Cache.DefaultTTL > 0 {
				cacheConfig.TTL = cfg.Cache.DefaultTTL
			}
			p.closers = append(p.closers, client.Close)
		}
		p.cache = NewCachedSource(p.breaker, cacheConfig, logger)
		p.Source = p.cache
	}

	logger.WithFields(logrus.Fields{
		"source": p.Kind,
		"cached": p.cache != nil,
		"redis":  cfg.Cache.Enabled && cfg.Cache.RedisURL != "",
	}).Info("Reference source ready")

	return p, nil
}

func newRedisClient(cfg domain.CacheConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	return redis.NewClient(opts), nil
}

// Species lists the species the backing source knows
func (p *Provider) Species(ctx context.Context) ([]string, error) {
	if l, ok := p.base.(speciesLister); ok {
		return l.Species(ctx)
	}
	return nil, nil
}

// Invalidate drops cached tables after a sync
func (p *Provider) Invalidate(ctx context.Context, species ...string) {
	if p.cache == nil {
		return
	}
	for _, s := range species {
		p.cache.Invalidate(ctx, s)
	}
}

// Health reports the state of the backing store
func (p *Provider) Health(ctx context.Context) map[string]string {
	status := map[string]string{"source": p.Kind, "status": "ok"}
	if pg, ok := p.base.(pinger); ok {
		if err := pg.Ping(ctx); err != nil {
			status["status"] = "unavailable"
			status["error"] = err.Error()
		}
	}
	if p.breaker != nil {
		status["circuit_breaker"] = p.breaker.State()
	}
	return status
}

// Close releases the resources held by the provider
func (p *Provider) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// Sync writes tables into the provider's store and drops their cached copies
func (p *Provider) Sync(ctx context.Context, tables []*domain.ReferenceTable) error {
	if p.Store == nil {
		return fmt.Errorf("reference source %q is read-only", p.Kind)
	}
	for _, t := range tables {
		if err := p.Store.SaveReferenceTable(ctx, t); err != nil {
			return err
		}
		p.Invalidate(ctx, t.Species)
	}
	return nil
}
