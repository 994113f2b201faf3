// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	noderpc "github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/rpc"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	pool   *noderpc.Pool
	logger *zap.Logger
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
// fallbacks используются, когда основной узел недоступен.
func NewClient(rpcURL string, logger *zap.Logger, fallbacks ...string) *Client {
	return &Client{
		pool:   noderpc.NewPool(append([]string{rpcURL}, fallbacks...), logger),
		logger: logger.Named("solbc-client"),
	}
}

// GetLatestBlockhash получает свежий blockhash и lastValidBlockHeight.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*blockchain.Blockhash, error) {
	var result *rpc.GetLatestBlockhashResult
	err := c.pool.Execute(ctx, "getLatestBlockhash", func(node *rpc.Client) (err error) {
		result, err = node.GetLatestBlockhash(ctx, commitment)
		return err
	})
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("empty blockhash response")
	}
	return &blockchain.Blockhash{
		Hash:                 result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// GetBlockHeight получает текущую высоту блока.
func (c *Client) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	var height uint64
	err := c.pool.Execute(ctx, "getBlockHeight", func(node *rpc.Client) (err error) {
		height, err = node.GetBlockHeight(ctx, commitment)
		return err
	})
	if err != nil {
		c.logger.Warn("GetBlockHeight error", zap.Error(err))
		return 0, err
	}
	return height, nil
}

// GetBalance получает баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	var result *rpc.GetBalanceResult
	err := c.pool.Execute(ctx, "getBalance", func(node *rpc.Client) (err error) {
		result, err = node.GetBalance(ctx, pubkey, commitment)
		return err
	})
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// parsedTokenAccount – структура jsonParsed-ответа для SPL токен-аккаунта.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
	Program string `json:"program"`
}

// GetTokenAccountsByOwner получает токен-аккаунты владельца программы SPL Token.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, commitment rpc.CommitmentType) ([]blockchain.TokenAccountBalance, error) {
	programID := solana.TokenProgramID
	var result *rpc.GetTokenAccountsResult
	err := c.pool.Execute(ctx, "getTokenAccountsByOwner", func(node *rpc.Client) (err error) {
		result, err = node.GetTokenAccountsByOwner(ctx, owner,
			&rpc.GetTokenAccountsConfig{ProgramId: &programID},
			&rpc.GetTokenAccountsOpts{Commitment: commitment, Encoding: solana.EncodingJSONParsed},
		)
		return err
	})
	if err != nil {
		c.logger.Error("GetTokenAccountsByOwner error",
			zap.String("owner", owner.String()),
			zap.Error(err))
		return nil, err
	}

	accounts := make([]blockchain.TokenAccountBalance, 0, len(result.Value))
	for _, acc := range result.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		balance, err := decodeParsedTokenAccount(acc.Pubkey, acc.Account.Data.GetRawJSON())
		if err != nil {
			// Один битый аккаунт не должен ломать весь список
			c.logger.Debug("Skipping undecodable token account",
				zap.String("account", acc.Pubkey.String()),
				zap.Error(err))
			continue
		}
		accounts = append(accounts, balance)
	}
	return accounts, nil
}

func decodeParsedTokenAccount(address solana.PublicKey, raw []byte) (blockchain.TokenAccountBalance, error) {
	if len(raw) == 0 {
		return blockchain.TokenAccountBalance{}, fmt.Errorf("account data is not jsonParsed")
	}
	var parsed parsedTokenAccount
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return blockchain.TokenAccountBalance{}, fmt.Errorf("decode token account: %w", err)
	}
	info := parsed.Parsed.Info
	mint, err := solana.PublicKeyFromBase58(info.Mint)
	if err != nil {
		return blockchain.TokenAccountBalance{}, fmt.Errorf("invalid mint: %w", err)
	}
	owner, err := solana.PublicKeyFromBase58(info.Owner)
	if err != nil {
		return blockchain.TokenAccountBalance{}, fmt.Errorf("invalid owner: %w", err)
	}
	raw64, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
	if err != nil {
		return blockchain.TokenAccountBalance{}, fmt.Errorf("invalid token amount %q: %w", info.TokenAmount.Amount, err)
	}
	return blockchain.TokenAccountBalance{
		Address:  address,
		Mint:     mint,
		Owner:    owner,
		Amount:   raw64,
		Decimals: info.TokenAmount.Decimals,
	}, nil
}

// GetFeeForMessage оценивает комиссию за сообщение в лампортах.
func (c *Client) GetFeeForMessage(ctx context.Context, message *solana.Message, commitment rpc.CommitmentType) (uint64, error) {
	data, err := message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	var result *rpc.GetFeeForMessageResult
	err = c.pool.Execute(ctx, "getFeeForMessage", func(node *rpc.Client) (err error) {
		result, err = node.GetFeeForMessage(ctx, encoded, commitment)
		return err
	})
	if err != nil {
		c.logger.Warn("GetFeeForMessage error", zap.Error(err))
		return 0, err
	}
	if result == nil || result.Value == nil {
		return 0, blockchain.ErrFeeUnavailable
	}
	return *result.Value, nil
}

// SimulateTransaction симулирует транзакцию и возвращает результат симуляции.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*blockchain.SimulationResult, error) {
	var result *rpc.SimulateTransactionResponse
	err := c.pool.Execute(ctx, "simulateTransaction", func(node *rpc.Client) (err error) {
		result, err = node.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
			SigVerify:  true,
			Commitment: commitment,
		})
		return err
	})
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("empty simulation response")
	}
	units := uint64(0)
	if result.Value.UnitsConsumed != nil {
		units = *result.Value.UnitsConsumed
	}
	return &blockchain.SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: units,
	}, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	// Повторы делает менеджер транзакций, узел не должен пересылать сам
	noNodeRetries := uint(0)
	var sig solana.Signature
	err := c.pool.Execute(ctx, "sendTransaction", func(node *rpc.Client) (err error) {
		sig, err = node.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
			MaxRetries:          &noNodeRetries,
		})
		return err
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var result *rpc.GetSignatureStatusesResult
	err := c.pool.Execute(ctx, "getSignatureStatuses", func(node *rpc.Client) (err error) {
		result, err = node.GetSignatureStatuses(ctx, false, signatures...)
		return err
	})
	if err != nil {
		c.logger.Error("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetAccountInfo получает информацию об аккаунте.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	var result *rpc.GetAccountInfoResult
	err := c.pool.Execute(ctx, "getAccountInfo", func(node *rpc.Client) (err error) {
		result, err = node.GetAccountInfo(ctx, pubkey)
		return err
	})
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetSignaturesForAddress получает историю подписей адреса.
func (c *Client) GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, opts blockchain.SignaturesOptions) ([]*rpc.TransactionSignature, error) {
	rpcOpts := &rpc.GetSignaturesForAddressOpts{
		Before:     opts.Before,
		Commitment: rpc.CommitmentConfirmed,
	}
	if opts.Limit > 0 {
		limit := opts.Limit
		rpcOpts.Limit = &limit
	}
	var result []*rpc.TransactionSignature
	err := c.pool.Execute(ctx, "getSignaturesForAddress", func(node *rpc.Client) (err error) {
		result, err = node.GetSignaturesForAddressWithOpts(ctx, account, rpcOpts)
		return err
	})
	if err != nil {
		c.logger.Error("GetSignaturesForAddress error",
			zap.String("account", account.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
