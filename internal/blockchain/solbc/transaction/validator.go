// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("tx-validator"),
	}
}

// ValidatePending проверяет транзакцию до подписи.
func (v *Validator) ValidatePending(p *Pending) error {
	if p == nil {
		return ErrInvalidInstruction
	}
	if p.FeePayer.IsZero() {
		return ErrNoFeePayer
	}
	if p.InstructionCount() == 0 {
		return ErrInvalidInstruction
	}
	return nil
}

// ValidateSigned проверяет, что подпись реально проставлена во все обязательные слоты.
func (v *Validator) ValidateSigned(tx *solana.Transaction) error {
	if tx.Message.RecentBlockhash == (solana.Hash{}) {
		return ErrInvalidBlockhash
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrInvalidInstruction
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 || len(tx.Signatures) < required {
		return fmt.Errorf("%w: have %d of %d", ErrSignatureNotApplied, len(tx.Signatures), required)
	}
	for i := 0; i < required; i++ {
		if tx.Signatures[i].IsZero() {
			v.logger.Error("Signature slot is empty", zap.Int("slot", i))
			return fmt.Errorf("%w: slot %d", ErrSignatureNotApplied, i)
		}
	}
	return nil
}
