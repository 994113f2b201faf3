// internal/amount/amount.go
package amount

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

const (
	// NativeDecimals is the number of decimals of the native asset (lamports per SOL = 10^9).
	NativeDecimals uint8 = 9
	// MaxDecimals is the largest scale a token mint may declare.
	MaxDecimals uint8 = 18
)

var decimalPattern = regexp.MustCompile(`^([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// ToDisplay converts a raw integer balance into its exact decimal display value.
func ToDisplay(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

// ToRaw converts a display value into raw integer units, rounding half up
// to the nearest minor unit.
func ToRaw(display decimal.Decimal, decimals uint8) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, walleterr.Validation("amount.ToRaw", fmt.Sprintf("decimals %d out of range", decimals))
	}
	if display.IsNegative() {
		return 0, walleterr.Validation("amount.ToRaw", "amount must not be negative")
	}
	// For non-negative values Round is half-up.
	rounded := display.Shift(int32(decimals)).Round(0).BigInt()
	if !rounded.IsUint64() {
		return 0, walleterr.Validation("amount.ToRaw", "amount exceeds the representable range")
	}
	return rounded.Uint64(), nil
}

// Parse parses a user-entered display amount. Only plain decimal notation is
// accepted; signs, exponents and grouping separators are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, walleterr.Validation("amount.Parse", "amount is required")
	}
	if !decimalPattern.MatchString(s) {
		return decimal.Zero, walleterr.Validation("amount.Parse", fmt.Sprintf("invalid amount %q", s))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, walleterr.Wrap(walleterr.KindValidation, "amount.Parse", fmt.Sprintf("invalid amount %q", s), err)
	}
	return d, nil
}

// ParseDisplay parses a positive display amount and converts it to raw units.
// An amount that rounds to zero minor units is rejected.
func ParseDisplay(s string, decimals uint8) (uint64, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if !d.IsPositive() {
		return 0, walleterr.Validation("amount.ParseDisplay", "amount must be greater than zero")
	}
	raw, err := ToRaw(d, decimals)
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		return 0, walleterr.Validation("amount.ParseDisplay",
			fmt.Sprintf("amount %s is below the smallest unit for %d decimals", s, decimals))
	}
	return raw, nil
}

// FormatDisplay renders a raw balance without trailing zeros.
func FormatDisplay(raw uint64, decimals uint8) string {
	return ToDisplay(raw, decimals).String()
}
