// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

var ErrNotFound = errors.New("not found")

// SearchKind определяет, по каким полям искать токен.
type SearchKind string

const (
	SearchByAddress SearchKind = "address"
	SearchByName    SearchKind = "name"
	SearchAny       SearchKind = "any"
)

const DefaultSearchLimit = 10

// TokenStore – локальное хранилище метаданных токенов.
type TokenStore interface {
	// TokenByAddress возвращает ErrNotFound, если токена нет.
	TokenByAddress(ctx context.Context, address string) (*models.Token, error)
	UpsertTokens(ctx context.Context, tokens []models.Token) (int, error)
	SearchTokens(ctx context.Context, query string, kind SearchKind, limit int) ([]models.Token, error)
	// LastTokenUpdate возвращает нулевое время для пустой таблицы.
	LastTokenUpdate(ctx context.Context) (time.Time, error)
}

// Journal – журнал транзакций, отправленных кошельком.
type Journal interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionState(ctx context.Context, signature, state, errorKind, errorMsg string) error
	GetTransaction(ctx context.Context, signature string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, walletAddress string, limit, offset int) ([]*models.Transaction, error)
}

// Storage определяет интерфейс для работы с хранилищем.
type Storage interface {
	TokenStore
	Journal
	Close() error
}
