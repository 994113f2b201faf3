package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	tokenprog "github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/blockchaintest"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

var usdcMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

func mintAccount(program solana.PublicKey, decimals uint8) *rpc.GetAccountInfoResult {
	data := make([]byte, 82)
	data[44] = decimals
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Owner: program, Data: rpc.DataBytesOrJSONFromBytes(data)}}
}

func newBuilder(t *testing.T, client *blockchaintest.MockClient) *Builder {
	logger := zaptest.NewLogger(t)
	return NewBuilder(client, fee.NewPriorityManager(logger), logger)
}

func usdc() token.Asset {
	return token.Asset{Mint: usdcMint, Decimals: 6, Symbol: "USDC"}
}

func TestNativeTransferSingleInstruction(t *testing.T) {
	client := new(blockchaintest.MockClient)
	sender := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()

	p, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender:    sender,
		Recipient: recipient.String(),
		Asset:     token.Native(),
		Amount:    "0.5",
	})
	require.NoError(t, err)
	require.Len(t, p.Instructions, 1)
	assert.Equal(t, sender, p.FeePayer)
	assert.Equal(t, system.ProgramID, p.Instructions[0].ProgramID())
	assert.Equal(t, "send", p.Summary.Kind)

	tx, err := p.Build(solana.Hash{1})
	require.NoError(t, err)
	assert.Equal(t, sender, tx.Message.AccountKeys[0])
	client.AssertExpectations(t)
}

func TestTokenTransferCreatesMissingAccount(t *testing.T) {
	client := new(blockchaintest.MockClient)
	sender := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, usdcMint)
	require.NoError(t, err)

	client.On("GetAccountInfo", mock.Anything, usdcMint).Return(mintAccount(solana.TokenProgramID, 6), nil)
	client.On("GetAccountInfo", mock.Anything, destATA).Return(nil, rpc.ErrNotFound)

	p, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender: sender, Recipient: recipient.String(), Asset: usdc(), Amount: "12.5",
	})
	require.NoError(t, err)
	require.Len(t, p.Instructions, 2)
	assert.Equal(t, associatedtokenaccount.ProgramID, p.Instructions[0].ProgramID())
	assert.Equal(t, tokenprog.ProgramID, p.Instructions[1].ProgramID())
	client.AssertExpectations(t)
}

func TestTokenTransferToExistingAccount(t *testing.T) {
	client := new(blockchaintest.MockClient)
	sender := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, usdcMint)
	require.NoError(t, err)

	client.On("GetAccountInfo", mock.Anything, usdcMint).Return(mintAccount(solana.TokenProgramID, 6), nil)
	client.On("GetAccountInfo", mock.Anything, destATA).Return(blockchaintest.ExistingAccount(solana.TokenProgramID), nil)

	p, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender: sender, Recipient: recipient.String(), Asset: usdc(), Amount: "1",
	})
	require.NoError(t, err)
	require.Len(t, p.Instructions, 1)
	assert.Equal(t, tokenprog.ProgramID, p.Instructions[0].ProgramID())
}

func TestInvalidRecipientBeforeNetwork(t *testing.T) {
	client := new(blockchaintest.MockClient)
	_, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender: solana.NewWallet().PublicKey(), Recipient: "not-an-address", Asset: usdc(), Amount: "1",
	})
	require.Error(t, err)
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
	client.AssertNotCalled(t, "GetAccountInfo", mock.Anything, mock.Anything)
}

func TestInvalidAmountBeforeNetwork(t *testing.T) {
	client := new(blockchaintest.MockClient)
	for _, amt := range []string{"", "0", "-3", "1e6", "0.0000001"} {
		_, err := newBuilder(t, client).Build(context.Background(), Request{
			Sender: solana.NewWallet().PublicKey(), Recipient: solana.NewWallet().PublicKey().String(), Asset: usdc(), Amount: amt,
		})
		assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(err), amt)
	}
	client.AssertNotCalled(t, "GetAccountInfo", mock.Anything, mock.Anything)
}

func TestUnresolvableMint(t *testing.T) {
	client := new(blockchaintest.MockClient)
	client.On("GetAccountInfo", mock.Anything, usdcMint).Return(blockchaintest.ExistingAccount(solana.SystemProgramID), nil)

	_, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender: solana.NewWallet().PublicKey(), Recipient: solana.NewWallet().PublicKey().String(), Asset: usdc(), Amount: "1",
	})
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
}

func TestMintLookupNetworkErrorIsTransient(t *testing.T) {
	client := new(blockchaintest.MockClient)
	client.On("GetAccountInfo", mock.Anything, usdcMint).Return(nil, errors.New("connection reset by peer"))

	_, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender: solana.NewWallet().PublicKey(), Recipient: solana.NewWallet().PublicKey().String(), Asset: usdc(), Amount: "1",
	})
	assert.Equal(t, walleterr.KindTransientNetwork, walleterr.KindOf(err))
}

func TestPriorityInstructionsPrepended(t *testing.T) {
	client := new(blockchaintest.MockClient)
	p, err := newBuilder(t, client).Build(context.Background(), Request{
		Sender:    solana.NewWallet().PublicKey(),
		Recipient: solana.NewWallet().PublicKey().String(),
		Asset:     token.Native(),
		Amount:    "0.1",
		Priority:  fee.PriorityMedium,
	})
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	assert.Equal(t, computebudget.ProgramID, p.Instructions[0].ProgramID())
	assert.Equal(t, computebudget.ProgramID, p.Instructions[1].ProgramID())
	assert.Equal(t, system.ProgramID, p.Instructions[2].ProgramID())
}
