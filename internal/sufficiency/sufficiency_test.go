package sufficiency

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

func lamports(v uint64) *uint64 { return &v }

func nativeAsset() *token.Asset {
	a := token.Native()
	return &a
}

func usdcAsset() *token.Asset {
	return &token.Asset{Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6, Symbol: "USDC"}
}

func TestNativeFeeReservation(t *testing.T) {
	r := Check(Input{Asset: nativeAsset(), Amount: "0.5", NativeBalance: lamports(500_000_000), Fee: fee.Known(5000)})
	assert.False(t, r.OK)
	assert.Equal(t, uint64(500_000_000), r.Raw)
	assert.True(t, walleterr.Is(r.Err, walleterr.KindInsufficientFunds))
}

func TestNativeCases(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		balance *uint64
		fee     fee.Estimate
		ok      bool
		kind    walleterr.Kind
	}{
		{"approved", "0.5", lamports(1_000_000_000), fee.Known(5000), true, 0},
		{"exact with fee", "0.999995", lamports(1_000_000_000), fee.Known(5000), false, walleterr.KindInsufficientFunds},
		{"exact zero fee", "1", lamports(1_000_000_000), fee.Known(0), true, 0},
		{"unknown fee", "0.1", lamports(1_000_000_000), fee.Unknown(), false, walleterr.KindInsufficientFunds},
		{"unknown balance", "0.1", nil, fee.Known(5000), false, walleterr.KindInsufficientFunds},
		{"zero amount", "0", lamports(1_000_000_000), fee.Known(5000), false, walleterr.KindValidation},
		{"negative amount", "-1", lamports(1_000_000_000), fee.Known(5000), false, walleterr.KindValidation},
		{"garbage", "abc", lamports(1_000_000_000), fee.Known(5000), false, walleterr.KindValidation},
		{"below smallest unit", "0.0000000001", lamports(1_000_000_000), fee.Known(5000), false, walleterr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Check(Input{Asset: nativeAsset(), Amount: tt.amount, NativeBalance: tt.balance, Fee: tt.fee})
			assert.Equal(t, tt.ok, r.OK)
			if tt.ok {
				assert.NoError(t, r.Err)
				return
			}
			assert.Equal(t, tt.kind, walleterr.KindOf(r.Err))
		})
	}
}

func TestTokenRequiresFeeInNative(t *testing.T) {
	base := Input{Asset: usdcAsset(), Amount: "10", TokenBalance: 10_000_000, NativeBalance: lamports(5000), Fee: fee.Known(5000)}
	r := Check(base)
	assert.True(t, r.OK)
	assert.Equal(t, uint64(10_000_000), r.Raw)

	noSOL := base
	noSOL.NativeBalance = lamports(4999)
	assert.False(t, Check(noSOL).OK)

	short := base
	short.TokenBalance = 9_999_999
	r = Check(short)
	assert.False(t, r.OK)
	assert.True(t, walleterr.Is(r.Err, walleterr.KindInsufficientFunds))

	tooPrecise := base
	tooPrecise.Amount = "0.0000001"
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(Check(tooPrecise).Err))
}

func TestNoAssetSelected(t *testing.T) {
	r := Check(Input{Amount: "1", NativeBalance: lamports(1), Fee: fee.Known(0)})
	assert.False(t, r.OK)
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(r.Err))
}
