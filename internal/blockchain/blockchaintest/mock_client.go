// internal/blockchain/blockchaintest/mock_client.go
package blockchaintest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
)

// MockClient реализует интерфейс blockchain.Client для тестов.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*blockchain.Blockhash, error) {
	args := m.Called(ctx, commitment)
	bh, _ := args.Get(0).(*blockchain.Blockhash)
	return bh, args.Error(1)
}

func (m *MockClient) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, pubkey, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, commitment rpc.CommitmentType) ([]blockchain.TokenAccountBalance, error) {
	args := m.Called(ctx, owner, commitment)
	accounts, _ := args.Get(0).([]blockchain.TokenAccountBalance)
	return accounts, args.Error(1)
}

func (m *MockClient) GetFeeForMessage(ctx context.Context, message *solana.Message, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, message, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) SimulateTransaction(ctx context.Context, tx *solana.Transaction, commitment rpc.CommitmentType) (*blockchain.SimulationResult, error) {
	args := m.Called(ctx, tx, commitment)
	res, _ := args.Get(0).(*blockchain.SimulationResult)
	return res, args.Error(1)
}

func (m *MockClient) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	res, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return res, args.Error(1)
}

func (m *MockClient) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, pubkey)
	res, _ := args.Get(0).(*rpc.GetAccountInfoResult)
	return res, args.Error(1)
}

func (m *MockClient) GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, opts blockchain.SignaturesOptions) ([]*rpc.TransactionSignature, error) {
	args := m.Called(ctx, account, opts)
	res, _ := args.Get(0).([]*rpc.TransactionSignature)
	return res, args.Error(1)
}

// Status собирает ответ getSignatureStatuses с одной записью.
// nil означает, что транзакция ещё не видна в леджере.
func Status(status *rpc.SignatureStatusesResult) *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{status}}
}

// ExistingAccount возвращает непустой ответ getAccountInfo.
func ExistingAccount(owner solana.PublicKey) *rpc.GetAccountInfoResult {
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Owner: owner, Lamports: 2039280}}
}

var _ blockchain.Client = (*MockClient)(nil)
