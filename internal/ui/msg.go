package ui

import (
	"time"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
)

// Tea message types for dashboard updates

// BalanceMsg – трекер опубликовал новый снимок.
type BalanceMsg struct {
	Event events.BalanceUpdatedEvent
}

// RefreshDoneMsg – завершилось обновление, запущенное клавишей r.
type RefreshDoneMsg struct {
	Snapshot *balance.Snapshot
	Err      error
}

// TxStateMsg – переход конвейера отправки.
type TxStateMsg struct {
	Kind     string
	State    string
	Terminal bool
}

// TxResultMsg – итог отправленной транзакции.
type TxResultMsg struct {
	Event events.TransactionCompletedEvent
}

// TokensSyncedMsg – список токенов обновлён.
type TokensSyncedMsg struct {
	Tokens int
}

// TickMsg перерисовывает панель логов и индикатор обновления.
type TickMsg time.Time
