// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrFeeUnavailable возвращается, когда узел не смог оценить комиссию для сообщения.
var ErrFeeUnavailable = errors.New("fee for message is unavailable")

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// SimulationResult представляет результат симуляции транзакции.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// Blockhash – ссылка на срок действия транзакции.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// TokenAccountBalance – распарсенный токен-аккаунт владельца.
type TokenAccountBalance struct {
	Address  solana.PublicKey
	Mint     solana.PublicKey
	Owner    solana.PublicKey
	Amount   uint64
	Decimals uint8
}

// SignaturesOptions задаёт пагинацию истории подписей.
type SignaturesOptions struct {
	Before solana.Signature
	Limit  int
}

// Client определяет общий интерфейс для взаимодействия с блокчейном.
type Client interface {
	// Получить последний blockhash вместе с высотой блока, после которой он истекает.
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*Blockhash, error)
	// Получить текущую высоту блока.
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	// Получить баланс аккаунта в лампортах.
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	// Получить все токен-аккаунты владельца.
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, commitment rpc.CommitmentType) ([]TokenAccountBalance, error)
	// Получить комиссию за сообщение.
	GetFeeForMessage(ctx context.Context, message *solana.Message, commitment rpc.CommitmentType) (uint64, error)
	// Симулировать транзакцию.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*SimulationResult, error)
	// Отправить транзакцию с опциями.
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	// Получить статусы подписей транзакций.
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// Получить информацию об аккаунте.
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	// Получить подписи транзакций, затрагивающих адрес.
	GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, opts SignaturesOptions) ([]*rpc.TransactionSignature, error)
}

// AccountExists проверяет существование аккаунта; "not found" не считается ошибкой.
func AccountExists(ctx context.Context, client Client, address solana.PublicKey) (bool, error) {
	info, err := client.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return info != nil && info.Value != nil, nil
}
