// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrSignatureNotApplied = errors.New("required signature slot is empty after signing")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrInvalidInstruction  = errors.New("transaction has no instructions")
	ErrNoFeePayer          = errors.New("fee payer is not set")
)

// State – этап жизненного цикла отправки транзакции.
type State string

const (
	StateIdle       State = "idle"
	StateSimulating State = "simulating"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed"
	StateRejected   State = "rejected"
	StateTimedOut   State = "timed_out"
	// StateFailed – конвейер прерван до того, как транзакция попала в леджер.
	StateFailed State = "failed"
)

// Terminal сообщает, является ли состояние конечным.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateRejected || s == StateTimedOut || s == StateFailed
}

// DefaultConfirmTimeout покрывает окно действия blockhash (150 блоков по ~400ms) с запасом.
const DefaultConfirmTimeout = 90 * time.Second

type Config struct {
	// MaxRetries – общее число попыток отправки одних и тех же подписанных байт.
	MaxRetries      int
	RetryDelay      time.Duration
	PollInterval    time.Duration
	BlockhashMaxAge time.Duration
	// ConfirmTimeout – предельное время ожидания подтверждения, если высоту
	// блока узнать не удаётся.
	ConfirmTimeout time.Duration
	SkipPreflight  bool
	Commitment     rpc.CommitmentType
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		RetryDelay:      500 * time.Millisecond,
		PollInterval:    500 * time.Millisecond,
		BlockhashMaxAge: 5 * time.Second,
		ConfirmTimeout:  DefaultConfirmTimeout,
		Commitment:      rpc.CommitmentConfirmed,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BlockhashMaxAge <= 0 {
		c.BlockhashMaxAge = d.BlockhashMaxAge
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = d.ConfirmTimeout
	}
	if c.Commitment == "" {
		c.Commitment = d.Commitment
	}
	return c
}

// Signer подписывает транзакцию ключом владельца.
type Signer interface {
	Address() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Summary описывает транзакцию для журнала и уведомлений.
type Summary struct {
	Kind      string // "send" | "swap"
	Amount    string
	Mint      string
	Recipient string
}

// Pending – собранная, но ещё не подписанная транзакция.
// Либо Instructions (перевод), либо Message (готовое сообщение агрегатора).
// Blockhash всегда подставляется непосредственно перед подписью.
type Pending struct {
	Instructions []solana.Instruction
	Message      *solana.Message
	FeePayer     solana.PublicKey
	Summary      Summary
}

// Build собирает неподписанную транзакцию с указанным blockhash.
func (p *Pending) Build(blockhash solana.Hash) (*solana.Transaction, error) {
	if p.FeePayer.IsZero() {
		return nil, ErrNoFeePayer
	}
	if p.Message != nil {
		msg := *p.Message
		msg.RecentBlockhash = blockhash
		return &solana.Transaction{Message: msg}, nil
	}
	if len(p.Instructions) == 0 {
		return nil, ErrInvalidInstruction
	}
	return solana.NewTransaction(p.Instructions, blockhash, solana.TransactionPayer(p.FeePayer))
}

// InstructionCount возвращает число инструкций в транзакции.
func (p *Pending) InstructionCount() int {
	if p.Message != nil {
		return len(p.Message.Instructions)
	}
	return len(p.Instructions)
}

// Result – итог отправки (ConfirmationResult).
type Result struct {
	Signature solana.Signature
	Success   bool
	State     State
	Slot      uint64
	Attempts  int
	// Err – классифицированная ошибка (walleterr), nil при успехе.
	Err      error
	Duration time.Duration
}

// Ambiguous сообщает, что исход неизвестен: транзакция могла пройти.
func (r *Result) Ambiguous() bool {
	return r != nil && r.State == StateTimedOut
}
