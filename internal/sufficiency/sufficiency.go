// internal/sufficiency/sufficiency.go
package sufficiency

import (
	"fmt"
	"math/big"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

const op = "sufficiency.Check"

// Input – всё, что нужно для проверки; сеть не используется.
type Input struct {
	// Asset выбранный актив; nil означает, что актив не выбран.
	Asset *token.Asset
	// Amount – введённая пользователем сумма в отображаемых единицах.
	Amount string
	// NativeBalance в лампортах; nil – баланс неизвестен.
	NativeBalance *uint64
	// TokenBalance – сырой баланс выбранного токена (для нативного актива не используется).
	TokenBalance uint64
	Fee          fee.Estimate
}

// Result – вердикт для кнопки отправки.
type Result struct {
	OK bool
	// Raw – сумма в минимальных единицах, если она распарсилась.
	Raw uint64
	// Err объясняет отказ (KindValidation или KindInsufficientFunds).
	Err error
}

func reject(raw uint64, err error) Result {
	return Result{Raw: raw, Err: err}
}

// Check применяет правила достаточности средств.
// Нативный актив: amount + fee должно быть строго меньше баланса при fee > 0.
// Токен: сырой баланс токена покрывает amount, а нативный баланс – комиссию.
// Неизвестная комиссия всегда отклоняется.
func Check(in Input) Result {
	if in.Asset == nil {
		return reject(0, walleterr.Validation(op, "no asset selected"))
	}
	raw, err := amount.ParseDisplay(in.Amount, in.Asset.Decimals)
	if err != nil {
		return reject(0, err)
	}
	if !in.Fee.Known {
		return reject(raw, walleterr.New(walleterr.KindInsufficientFunds, op, "network fee is unknown"))
	}
	if in.NativeBalance == nil {
		return reject(raw, walleterr.New(walleterr.KindInsufficientFunds, op, "balance is unavailable"))
	}
	native := *in.NativeBalance

	if in.Asset.Native {
		// big.Int: amount + fee не должен переполниться.
		need := new(big.Int).Add(new(big.Int).SetUint64(raw), new(big.Int).SetUint64(in.Fee.Lamports))
		have := new(big.Int).SetUint64(native)
		cmp := need.Cmp(have)
		if cmp > 0 || (cmp == 0 && in.Fee.Lamports > 0) {
			return reject(raw, walleterr.New(walleterr.KindInsufficientFunds, op,
				fmt.Sprintf("need %s SOL including fee, have %s SOL",
					amount.ToDisplay(raw, amount.NativeDecimals).Add(amount.ToDisplay(in.Fee.Lamports, amount.NativeDecimals)),
					amount.FormatDisplay(native, amount.NativeDecimals))))
		}
		return Result{OK: true, Raw: raw}
	}

	if in.TokenBalance < raw {
		return reject(raw, walleterr.New(walleterr.KindInsufficientFunds, op,
			fmt.Sprintf("need %s %s, have %s", amount.FormatDisplay(raw, in.Asset.Decimals), in.Asset,
				amount.FormatDisplay(in.TokenBalance, in.Asset.Decimals))))
	}
	if native < in.Fee.Lamports {
		return reject(raw, walleterr.New(walleterr.KindInsufficientFunds, op,
			fmt.Sprintf("not enough SOL for network fee %s", in.Fee)))
	}
	return Result{OK: true, Raw: raw}
}
