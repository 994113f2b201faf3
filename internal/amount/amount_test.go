package amount

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

func TestRoundTripAllDecimals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	samples := []uint64{0, 1, 9, 10, 999_999_999, 1_000_000_000, 500_000_000, math.MaxUint64, math.MaxUint64 - 1}
	for i := 0; i < 200; i++ {
		samples = append(samples, rng.Uint64())
	}

	for d := uint8(0); d <= MaxDecimals; d++ {
		for _, b := range samples {
			raw, err := ToRaw(ToDisplay(b, d), d)
			require.NoError(t, err)
			if raw != b {
				t.Fatalf("round trip mismatch for b=%d d=%d: got %d", b, d, raw)
			}
		}
	}
}

func TestToRawRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     uint64
	}{
		{"0.5", 0, 1},
		{"0.49", 0, 0},
		{"1.0000000005", 9, 1_000_000_001},
		{"1.0000000004", 9, 1_000_000_000},
		{"0.1234565", 6, 123_457},
		{"2", 6, 2_000_000},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		got, err := ToRaw(d, tt.decimals)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDisplay(t *testing.T) {
	raw, err := ParseDisplay("0.5", NativeDecimals)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), raw)

	raw, err = ParseDisplay(" .25 ", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), raw)

	for _, bad := range []string{"", "abc", "-1", "0", "0.0", "1e9", "1,5", "+1"} {
		_, err := ParseDisplay(bad, NativeDecimals)
		require.Error(t, err, bad)
		assert.True(t, walleterr.Is(err, walleterr.KindValidation), bad)
	}

	_, err = ParseDisplay("0.0000000001", NativeDecimals)
	assert.True(t, walleterr.Is(err, walleterr.KindValidation))
}

func TestToRawRejectsOverflowAndNegative(t *testing.T) {
	_, err := ToRaw(decimal.RequireFromString("18446744073709551616"), 0)
	assert.True(t, walleterr.Is(err, walleterr.KindValidation))

	_, err = ToRaw(decimal.NewFromInt(-1), 0)
	assert.True(t, walleterr.Is(err, walleterr.KindValidation))

	_, err = ToRaw(decimal.NewFromInt(1), MaxDecimals+1)
	assert.Error(t, err)
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "1", FormatDisplay(1_000_000_000, NativeDecimals))
	assert.Equal(t, "0.000005", FormatDisplay(5000, NativeDecimals))
	assert.Equal(t, "12.5", FormatDisplay(12_500_000, 6))
}
