// internal/transfer/builder.go
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	tokenprog "github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

const op = "transfer.Build"

// Request – параметры перевода.
type Request struct {
	Sender    solana.PublicKey
	Recipient string
	Asset     token.Asset
	// Amount в отображаемых единицах актива.
	Amount string
	// Priority – профиль compute-budget; PriorityNone – без инструкций.
	Priority fee.PriorityLevel
	// PriorityMicroLamports – явная цена CU, имеет приоритет над Priority.
	PriorityMicroLamports uint64
	PriorityComputeUnits  uint32
}

// Builder собирает PendingTransaction для перевода SOL или SPL-токена.
type Builder struct {
	client   blockchain.Client
	priority *fee.PriorityManager
	analyzer *solbc.ErrorAnalyzer
	logger   *zap.Logger
}

func NewBuilder(client blockchain.Client, priority *fee.PriorityManager, logger *zap.Logger) *Builder {
	return &Builder{
		client:   client,
		priority: priority,
		analyzer: solbc.NewErrorAnalyzer(logger),
		logger:   logger.Named("transfer-builder"),
	}
}

// ParseRecipient проверяет адрес получателя без обращения к сети.
func ParseRecipient(address string) (solana.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return solana.PublicKey{}, walleterr.Validation(op, "recipient address is required")
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, walleterr.Wrap(walleterr.KindValidation, op, fmt.Sprintf("invalid recipient address %q", address), err)
	}
	return pk, nil
}

// Build проверяет запрос и строит инструкции. Blockhash не подставляется:
// его получает Manager непосредственно перед подписью.
func (b *Builder) Build(ctx context.Context, req Request) (*transaction.Pending, error) {
	if req.Sender.IsZero() {
		return nil, walleterr.Validation(op, "sender is not set")
	}
	recipient, err := ParseRecipient(req.Recipient)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if req.Asset.Native {
		raw, err := amount.ParseDisplay(req.Amount, amount.NativeDecimals)
		if err != nil {
			return nil, err
		}
		instructions = []solana.Instruction{
			system.NewTransferInstruction(raw, req.Sender, recipient).Build(),
		}
		b.logger.Debug("Native transfer built",
			zap.String("recipient", recipient.String()),
			zap.Uint64("lamports", raw))
	} else {
		instructions, err = b.tokenInstructions(ctx, req, recipient)
		if err != nil {
			return nil, err
		}
	}

	priority, err := b.priorityInstructions(req)
	if err != nil {
		return nil, err
	}

	return &transaction.Pending{
		Instructions: append(priority, instructions...),
		FeePayer:     req.Sender,
		Summary: transaction.Summary{
			Kind:      "send",
			Amount:    strings.TrimSpace(req.Amount),
			Mint:      req.Asset.Mint.String(),
			Recipient: recipient.String(),
		},
	}, nil
}

func (b *Builder) tokenInstructions(ctx context.Context, req Request, recipient solana.PublicKey) ([]solana.Instruction, error) {
	if req.Asset.Mint.IsZero() {
		return nil, walleterr.Validation(op, "no asset selected")
	}
	// Формат суммы проверяется до сетевых вызовов.
	if _, err := amount.ParseDisplay(req.Amount, req.Asset.Decimals); err != nil {
		return nil, err
	}

	mint, err := token.LoadMint(ctx, b.client, req.Asset.Mint)
	if err != nil {
		if errors.Is(err, token.ErrNotMint) {
			return nil, walleterr.Wrap(walleterr.KindValidation, op, fmt.Sprintf("unresolvable mint %s", req.Asset.Mint), err)
		}
		return nil, b.analyzer.Classify(op, err)
	}
	if !mint.Program.Equals(solana.TokenProgramID) {
		return nil, walleterr.Validation(op, fmt.Sprintf("mint %s is owned by %s, only SPL Token mints are supported", req.Asset.Mint, mint.Program))
	}
	if mint.Decimals != req.Asset.Decimals {
		b.logger.Warn("Asset decimals differ from mint account, using on-chain value",
			zap.String("mint", req.Asset.Mint.String()),
			zap.Uint8("asset_decimals", req.Asset.Decimals),
			zap.Uint8("mint_decimals", mint.Decimals))
	}
	raw, err := amount.ParseDisplay(req.Amount, mint.Decimals)
	if err != nil {
		return nil, err
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(req.Sender, req.Asset.Mint)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "derive sender token account", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, req.Asset.Mint)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "derive recipient token account", err)
	}

	exists, err := blockchain.AccountExists(ctx, b.client, destATA)
	if err != nil {
		return nil, b.analyzer.Classify(op, err)
	}

	var instructions []solana.Instruction
	if !exists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(req.Sender, recipient, req.Asset.Mint).Build())
	}
	instructions = append(instructions,
		tokenprog.NewTransferInstruction(raw, sourceATA, destATA, req.Sender, nil).Build())

	b.logger.Debug("Token transfer built",
		zap.String("mint", req.Asset.Mint.String()),
		zap.String("source_ata", sourceATA.String()),
		zap.String("destination_ata", destATA.String()),
		zap.Bool("create_destination", !exists),
		zap.Uint64("raw_amount", raw))
	return instructions, nil
}

func (b *Builder) priorityInstructions(req Request) ([]solana.Instruction, error) {
	if b.priority == nil {
		return nil, nil
	}
	if req.PriorityMicroLamports > 0 {
		units := req.PriorityComputeUnits
		if units == 0 {
			units = fee.DefaultComputeUnits
		}
		return b.priority.CustomInstructions(req.PriorityMicroLamports, units), nil
	}
	instructions, err := b.priority.Instructions(req.Priority)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindValidation, op, "invalid priority level", err)
	}
	return instructions, nil
}
