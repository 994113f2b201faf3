// internal/token/resolver.go
package token

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	metadataTTL        = 5 * time.Minute
	resolveConcurrency = 8
)

// Provider – один уровень поиска метаданных. (nil, nil) означает промах.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, mint string) (*Metadata, error)
}

// ProviderFunc адаптирует функцию к Provider.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, mint string) (*Metadata, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Lookup(ctx context.Context, mint string) (*Metadata, error) {
	return p.Fn(ctx, mint)
}

type cacheEntry struct {
	md       Metadata
	storedAt time.Time
}

// Resolver перебирает провайдеров по порядку до первого попадания.
// Ошибка любого уровня логируется и не прерывает перебор.
type Resolver struct {
	providers []Provider
	logger    *zap.Logger
	cache     sync.Map
	now       func() time.Time
}

func NewResolver(logger *zap.Logger, providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    logger.Named("token-resolver"),
		now:       time.Now,
	}
}

// Resolve никогда не возвращает ошибку: при промахе всех уровней – Unknown.
func (r *Resolver) Resolve(ctx context.Context, mint string) Metadata {
	return r.resolve(ctx, mint, 0)
}

// ResolveWithDecimals делает то же, но подставляет известные decimals в Unknown
// и в записи без decimals.
func (r *Resolver) ResolveWithDecimals(ctx context.Context, mint string, decimals uint8) Metadata {
	return r.resolve(ctx, mint, decimals)
}

func (r *Resolver) resolve(ctx context.Context, mint string, decimals uint8) Metadata {
	if v, ok := r.cache.Load(mint); ok {
		entry := v.(cacheEntry)
		if r.now().Sub(entry.storedAt) < metadataTTL {
			return entry.md
		}
		r.cache.Delete(mint)
	}

	for _, p := range r.providers {
		md, err := r.lookup(ctx, p, mint)
		if err != nil {
			r.logger.Debug("Metadata provider failed",
				zap.String("provider", p.Name()),
				zap.String("mint", mint),
				zap.Error(err))
			continue
		}
		if md == nil {
			continue
		}
		out := *md
		out.Mint = mint
		if out.Source == "" {
			out.Source = p.Name()
		}
		if out.Decimals == 0 && decimals != 0 {
			out.Decimals = decimals
		}
		r.cache.Store(mint, cacheEntry{md: out, storedAt: r.now()})
		return out
	}

	r.logger.Debug("Metadata unavailable, using placeholder", zap.String("mint", mint))
	return Unknown(mint, decimals)
}

// lookup перехватывает панику провайдера; она считается промахом.
func (r *Resolver) lookup(ctx context.Context, p Provider, mint string) (md *Metadata, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Metadata provider panicked", zap.String("provider", p.Name()), zap.Any("panic", rec))
			md, err = nil, nil
		}
	}()
	return p.Lookup(ctx, mint)
}

// ResolveMany разрешает метаданные параллельно; порядок результата совпадает с mints.
func (r *Resolver) ResolveMany(ctx context.Context, mints []string, decimals []uint8) []Metadata {
	out := make([]Metadata, len(mints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, mint := range mints {
		i, mint := i, mint
		var d uint8
		if i < len(decimals) {
			d = decimals[i]
		}
		g.Go(func() error {
			out[i] = r.resolve(gctx, mint, d)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Invalidate сбрасывает кэш (например, после синхронизации списка токенов).
func (r *Resolver) Invalidate() {
	r.cache.Range(func(key, _ interface{}) bool {
		r.cache.Delete(key)
		return true
	})
}
