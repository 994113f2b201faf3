package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalletRoundTrip(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	restored, err := NewWallet(w.ExportBase58())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey, restored.PublicKey)
	assert.Equal(t, w.String(), restored.Address().String())
}

func TestNewWalletRejectsBadKeys(t *testing.T) {
	_, err := NewWallet("not-base58-0OIl")
	assert.Error(t, err)

	_, err = NewWallet("3mJr7AoUXx2Wqd") // valid base58, wrong length
	assert.Error(t, err)
}

func TestGetATAIsCachedAndDeterministic(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	mint := solana.NewWallet().PublicKey()

	first, err := w.GetATA(mint)
	require.NoError(t, err)
	second, err := w.GetATA(mint)
	require.NoError(t, err)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
	assert.Equal(t, first, second)
}

func TestSignTransactionFillsSignature(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, w.PublicKey, solana.NewWallet().PublicKey()).Build()},
		solana.Hash{1},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
	assert.NoError(t, tx.VerifySignatures())
}
