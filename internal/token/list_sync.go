// internal/token/list_sync.go
package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/httpx"
	"github.com/rovshanmuradov/solana-wallet/internal/storage"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

const (
	DefaultTokenListURL  = "https://token.jup.ag/all"
	DefaultSyncInterval  = 30 * time.Minute
	solanaMainnetChainID = 101
)

type listEntry struct {
	Address  string `json:"address"`
	ChainID  int    `json:"chainId"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	LogoURI  string `json:"logoURI"`
}

// ListSyncer загружает список токенов агрегатора в локальное хранилище.
type ListSyncer struct {
	http     *httpx.Client
	store    storage.TokenStore
	url      string
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	// onSynced вызывается после успешной записи (сброс кэша резолвера).
	onSynced func()
}

func NewListSyncer(client *httpx.Client, store storage.TokenStore, url string, interval time.Duration, logger *zap.Logger) *ListSyncer {
	if url == "" {
		url = DefaultTokenListURL
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &ListSyncer{
		http:     client,
		store:    store,
		url:      url,
		interval: interval,
		logger:   logger.Named("token-sync"),
		now:      time.Now,
	}
}

// OnSynced регистрирует колбэк после успешной синхронизации.
func (s *ListSyncer) OnSynced(fn func()) { s.onSynced = fn }

// Interval возвращает период синхронизации.
func (s *ListSyncer) Interval() time.Duration { return s.interval }

// Sync скачивает список и обновляет таблицу. Без force синхронизация пропускается,
// если последняя запись моложе интервала. Возвращает число записанных токенов.
func (s *ListSyncer) Sync(ctx context.Context, force bool) (int, error) {
	if !force {
		last, err := s.store.LastTokenUpdate(ctx)
		if err != nil {
			return 0, err
		}
		if !last.IsZero() && s.now().Sub(last) < s.interval {
			s.logger.Debug("Token list is fresh, skipping sync", zap.Time("last_updated", last))
			return 0, nil
		}
	}

	var entries []listEntry
	if err := s.http.Get(ctx, s.url, nil, &entries); err != nil {
		return 0, fmt.Errorf("download token list: %w", err)
	}

	now := s.now().UTC()
	tokens := make([]models.Token, 0, len(entries))
	for _, e := range entries {
		addr := strings.TrimSpace(e.Address)
		if addr == "" {
			continue
		}
		chainID := e.ChainID
		if chainID == 0 {
			chainID = solanaMainnetChainID
		}
		tokens = append(tokens, models.Token{
			Address:     addr,
			ChainID:     chainID,
			Decimals:    e.Decimals,
			Name:        e.Name,
			Symbol:      e.Symbol,
			LogoURI:     NormalizeIconURL(e.LogoURI),
			LastUpdated: now,
		})
	}

	n, err := s.store.UpsertTokens(ctx, tokens)
	if err != nil {
		return 0, fmt.Errorf("store token list: %w", err)
	}
	s.logger.Info("Token list synced", zap.Int("tokens", n))
	if s.onSynced != nil {
		s.onSynced()
	}
	return n, nil
}
