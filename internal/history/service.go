// internal/history/service.go
package history

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// Status – итог транзакции в истории.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry – одна транзакция в истории аккаунта.
type Entry struct {
	Signature string     `json:"signature"`
	Slot      uint64     `json:"slot"`
	BlockTime *time.Time `json:"block_time,omitempty"`
	Status    Status     `json:"status"`
	Memo      string     `json:"memo,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Amount    string     `json:"amount,omitempty"`
	Mint      string     `json:"mint,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
}

// Page – страница истории и курсор для следующей.
type Page struct {
	Entries []Entry
	// Next – подпись последней записи; передаётся как before.
	Next    string
	HasMore bool
}

type Service struct {
	client   blockchain.Client
	analyzer *solbc.ErrorAnalyzer
	logger   *zap.Logger
}

func NewService(client blockchain.Client, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		analyzer: solbc.NewErrorAnalyzer(logger),
		logger:   logger.Named("history"),
	}
}

// Page возвращает до limit подписей аккаунта, более старых, чем before.
// HasMore=false, если вернулось меньше limit записей.
func (s *Service) Page(ctx context.Context, owner, before string, limit int) (*Page, error) {
	const op = "history.Page"
	account, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, walleterr.Validation(op, "invalid account address")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	opts := blockchain.SignaturesOptions{Limit: limit}
	if before != "" {
		if opts.Before, err = solana.SignatureFromBase58(before); err != nil {
			return nil, walleterr.Validation(op, "invalid before cursor")
		}
	}

	sigs, err := s.client.GetSignaturesForAddress(ctx, account, opts)
	if err != nil {
		return nil, s.analyzer.Classify(op, err)
	}

	page := &Page{Entries: make([]Entry, 0, len(sigs))}
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		e := Entry{Signature: sig.Signature.String(), Slot: sig.Slot, Status: StatusConfirmed}
		if sig.Err != nil {
			e.Status = StatusFailed
		}
		if sig.BlockTime != nil {
			t := sig.BlockTime.Time().UTC()
			e.BlockTime = &t
		}
		if sig.Memo != nil {
			e.Memo = *sig.Memo
		}
		page.Entries = append(page.Entries, e)
	}
	if n := len(page.Entries); n > 0 {
		page.Next = page.Entries[n-1].Signature
	}
	page.HasMore = len(sigs) >= limit

	s.logger.Debug("History page loaded",
		zap.String("account", owner),
		zap.String("before", before),
		zap.Int("entries", len(page.Entries)),
		zap.Bool("has_more", page.HasMore))
	return page, nil
}

// FromJournal переводит записи локального журнала в записи истории.
func FromJournal(txs []*models.Transaction) []Entry {
	out := make([]Entry, 0, len(txs))
	for _, tx := range txs {
		t := tx.CreatedAt.UTC()
		e := Entry{
			Signature: tx.Signature,
			Slot:      tx.Slot,
			BlockTime: &t,
			Status:    StatusConfirmed,
			Memo:      tx.ErrorMessage,
			Kind:      tx.Kind,
			Amount:    tx.Amount,
			Mint:      tx.Mint,
			Recipient: tx.Recipient,
		}
		if tx.State != "confirmed" {
			e.Status = Status(tx.State)
		}
		out = append(out, e)
	}
	return out
}
