// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rovshanmuradov/solana-wallet/internal/storage"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

const lockTimeout = 5 * time.Second

var schema = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	`CREATE TABLE IF NOT EXISTS tokens (
		address      TEXT PRIMARY KEY,
		chain_id     INTEGER NOT NULL DEFAULT 101,
		decimals     INTEGER NOT NULL,
		name         TEXT NOT NULL DEFAULT '',
		symbol       TEXT NOT NULL DEFAULT '',
		logo_uri     TEXT NOT NULL DEFAULT '',
		last_updated INTEGER NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_tokens_symbol ON tokens(symbol);",
	`CREATE TABLE IF NOT EXISTS transactions (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		signature      TEXT NOT NULL UNIQUE,
		wallet_address TEXT NOT NULL,
		network        TEXT NOT NULL DEFAULT '',
		kind           TEXT NOT NULL,
		amount         TEXT NOT NULL DEFAULT '',
		mint           TEXT NOT NULL DEFAULT '',
		recipient      TEXT NOT NULL DEFAULT '',
		state          TEXT NOT NULL,
		error_kind     TEXT NOT NULL DEFAULT '',
		error_message  TEXT NOT NULL DEFAULT '',
		slot           INTEGER NOT NULL DEFAULT 0,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_transactions_wallet ON transactions(wallet_address, created_at);",
}

// Store реализует storage.Storage поверх sqlite. Запись защищена файловой
// блокировкой, чтобы CLI и дашборд могли работать одновременно.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	logger *zap.Logger
}

// Open открывает (и при необходимости создаёт) базу по пути path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &Store{
		db:     db,
		lock:   flock.New(path + ".lock"),
		logger: logger.Named("sqlite"),
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock storage: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock storage: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func lockContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, lockTimeout)
}

// TokenByAddress возвращает токен по адресу минта.
func (s *Store) TokenByAddress(ctx context.Context, address string) (*models.Token, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT address, chain_id, decimals, name, symbol, logo_uri, last_updated FROM tokens WHERE address = ?", address)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}
	return t, nil
}

// UpsertTokens вставляет или обновляет токены одной транзакцией.
func (s *Store) UpsertTokens(ctx context.Context, tokens []models.Token) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	lctx, cancel := lockContext(ctx)
	defer cancel()

	written := 0
	err := s.withWriteLock(lctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tokens (address, chain_id, decimals, name, symbol, logo_uri, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(address) DO UPDATE SET
				chain_id=excluded.chain_id,
				decimals=excluded.decimals,
				name=excluded.name,
				symbol=excluded.symbol,
				logo_uri=excluded.logo_uri,
				last_updated=excluded.last_updated`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tokens {
			updated := t.LastUpdated
			if updated.IsZero() {
				updated = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, t.Address, t.ChainID, t.Decimals, t.Name, t.Symbol, t.LogoURI, updated.UTC().Unix()); err != nil {
				return fmt.Errorf("upsert %s: %w", t.Address, err)
			}
			written++
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Tokens upserted", zap.Int("count", written))
	return written, nil
}

// SearchTokens ищет токены по адресу (точное совпадение) и/или по символу и имени.
func (s *Store) SearchTokens(ctx context.Context, query string, kind storage.SearchKind, limit int) ([]models.Token, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = storage.DefaultSearchLimit
	}
	like := "%" + query + "%"

	const columns = "SELECT address, chain_id, decimals, name, symbol, logo_uri, last_updated FROM tokens"
	var (
		stmt string
		args []interface{}
	)
	switch kind {
	case storage.SearchByAddress:
		stmt = columns + " WHERE address = ? LIMIT ?"
		args = []interface{}{query, limit}
	case storage.SearchByName:
		stmt = columns + " WHERE symbol LIKE ? OR name LIKE ? ORDER BY symbol = ? COLLATE NOCASE DESC, symbol LIMIT ?"
		args = []interface{}{like, like, query, limit}
	case storage.SearchAny, "":
		stmt = columns + " WHERE address = ? OR symbol LIKE ? OR name LIKE ? ORDER BY address = ? DESC, symbol = ? COLLATE NOCASE DESC, symbol LIMIT ?"
		args = []interface{}{query, like, like, query, query, limit}
	default:
		return nil, fmt.Errorf("unknown search kind: %s", kind)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search tokens: %w", err)
	}
	defer rows.Close()

	var out []models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// LastTokenUpdate возвращает время последней синхронизации списка токенов.
func (s *Store) LastTokenUpdate(ctx context.Context) (time.Time, error) {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(last_updated) FROM tokens").Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("last token update: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return time.Unix(last.Int64, 0).UTC(), nil
}

// SaveTransaction добавляет запись в журнал; повторная запись той же подписи обновляет её.
func (s *Store) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	lctx, cancel := lockContext(ctx)
	defer cancel()
	return s.withWriteLock(lctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO transactions (signature, wallet_address, network, kind, amount, mint, recipient,
				state, error_kind, error_message, slot, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(signature) DO UPDATE SET
				state=excluded.state,
				error_kind=excluded.error_kind,
				error_message=excluded.error_message,
				slot=excluded.slot,
				updated_at=excluded.updated_at`,
			t.Signature, t.WalletAddress, t.Network, t.Kind, t.Amount, t.Mint, t.Recipient,
			t.State, t.ErrorKind, t.ErrorMessage, int64(t.Slot), t.CreatedAt.Unix(), t.UpdatedAt.Unix())
		if err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil && t.ID == 0 {
			t.ID = id
		}
		return nil
	})
}

func (s *Store) UpdateTransactionState(ctx context.Context, signature, state, errorKind, errorMsg string) error {
	lctx, cancel := lockContext(ctx)
	defer cancel()
	return s.withWriteLock(lctx, func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE transactions SET state = ?, error_kind = ?, error_message = ?, updated_at = ? WHERE signature = ?",
			state, errorKind, errorMsg, time.Now().UTC().Unix(), signature)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetTransaction(ctx context.Context, signature string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, transactionColumns+" WHERE signature = ?", signature)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, walletAddress string, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = storage.DefaultSearchLimit
	}
	rows, err := s.db.QueryContext(ctx,
		transactionColumns+" WHERE wallet_address = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		walletAddress, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const transactionColumns = `SELECT id, signature, wallet_address, network, kind, amount, mint, recipient,
	state, error_kind, error_message, slot, created_at, updated_at FROM transactions`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row scanner) (*models.Token, error) {
	var (
		t       models.Token
		updated int64
	)
	if err := row.Scan(&t.Address, &t.ChainID, &t.Decimals, &t.Name, &t.Symbol, &t.LogoURI, &updated); err != nil {
		return nil, err
	}
	t.LastUpdated = time.Unix(updated, 0).UTC()
	return &t, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                  models.Transaction
		slot               int64
		created, updatedAt int64
	)
	err := row.Scan(&t.ID, &t.Signature, &t.WalletAddress, &t.Network, &t.Kind, &t.Amount, &t.Mint, &t.Recipient,
		&t.State, &t.ErrorKind, &t.ErrorMessage, &slot, &created, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Slot = uint64(slot)
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &t, nil
}

var _ storage.Storage = (*Store)(nil)
