package fee

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"go.uber.org/zap"
)

type PriorityLevel string

const (
	PriorityNone    PriorityLevel = "none"
	PriorityLow     PriorityLevel = "low"
	PriorityMedium  PriorityLevel = "medium"
	PriorityHigh    PriorityLevel = "high"
	PriorityExtreme PriorityLevel = "extreme"
)

// ParseLevel разбирает уровень приоритета из флага CLI.
func ParseLevel(s string) (PriorityLevel, error) {
	switch l := PriorityLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "", PriorityNone:
		return PriorityNone, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityExtreme:
		return l, nil
	default:
		return "", fmt.Errorf("unknown priority level: %s", s)
	}
}

// DefaultComputeUnits – лимит CU для явно заданной цены без профиля.
const DefaultComputeUnits uint32 = 200_000

type PriorityConfig struct {
	ComputeUnits  uint32 // Лимит вычислительных единиц
	MicroLamports uint64 // Цена CU в микролампортах
	HeapSize      uint32 // Дополнительная heap-память (опционально)
}

// MaxPriorityFee – верхняя граница приоритетной комиссии в лампортах.
func (c PriorityConfig) MaxPriorityFee() uint64 {
	return c.MicroLamports * uint64(c.ComputeUnits) / 1_000_000
}

type PriorityManager struct {
	profiles map[PriorityLevel]PriorityConfig
	logger   *zap.Logger
}

func NewPriorityManager(logger *zap.Logger) *PriorityManager {
	return &PriorityManager{
		profiles: map[PriorityLevel]PriorityConfig{
			PriorityLow: {
				ComputeUnits:  200_000,
				MicroLamports: 1_000,
			},
			PriorityMedium: {
				ComputeUnits:  200_000,
				MicroLamports: 10_000,
			},
			PriorityHigh: {
				ComputeUnits:  300_000,
				MicroLamports: 50_000,
			},
			PriorityExtreme: {
				ComputeUnits:  400_000,
				MicroLamports: 200_000,
				HeapSize:      32 * 1024,
			},
		},
		logger: logger.Named("priority"),
	}
}

// Profile возвращает профиль уровня.
func (pm *PriorityManager) Profile(level PriorityLevel) (PriorityConfig, bool) {
	cfg, ok := pm.profiles[level]
	return cfg, ok
}

// Instructions возвращает compute-budget инструкции для уровня; для none – пустой список.
func (pm *PriorityManager) Instructions(level PriorityLevel) ([]solana.Instruction, error) {
	if level == PriorityNone || level == "" {
		return nil, nil
	}
	config, ok := pm.profiles[level]
	if !ok {
		return nil, fmt.Errorf("unknown priority level: %s", level)
	}
	return pm.createInstructions(config), nil
}

// CustomInstructions строит инструкции для явно заданной цены (например, из PriorityEstimator).
func (pm *PriorityManager) CustomInstructions(microLamports uint64, units uint32) []solana.Instruction {
	return pm.createInstructions(PriorityConfig{
		ComputeUnits:  units,
		MicroLamports: microLamports,
	})
}

func (pm *PriorityManager) createInstructions(config PriorityConfig) []solana.Instruction {
	var instructions []solana.Instruction

	if config.ComputeUnits > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(config.ComputeUnits).Build())
	}
	if config.MicroLamports > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(config.MicroLamports).Build())
	}
	if config.HeapSize > 0 {
		instructions = append(instructions, computebudget.NewRequestHeapFrameInstruction(config.HeapSize).Build())
	}

	pm.logger.Debug("Priority instructions",
		zap.Uint32("compute_units", config.ComputeUnits),
		zap.Uint64("micro_lamports", config.MicroLamports),
		zap.Int("count", len(instructions)))
	return instructions
}
