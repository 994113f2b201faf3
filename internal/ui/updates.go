package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/events"
)

// UpdateSender переносит события шины в цикл bubbletea. Send не блокирует
// издателя: при полном буфере сообщение отбрасывается и учитывается.
type UpdateSender struct {
	msgChan        chan tea.Msg
	droppedUpdates atomic.Uint64
	sentUpdates    atomic.Uint64
	logger         *zap.Logger
	statsInterval  time.Duration
	stop           chan struct{}
	once           sync.Once
}

// NewUpdateSender creates a new non-blocking update sender
func NewUpdateSender(buffer int, logger *zap.Logger) *UpdateSender {
	if buffer <= 0 {
		buffer = 64
	}
	us := &UpdateSender{
		msgChan:       make(chan tea.Msg, buffer),
		logger:        logger.Named("ui-updates"),
		statsInterval: 30 * time.Second,
		stop:          make(chan struct{}),
	}
	go us.logStats()
	return us
}

// Send sends a message to the UI without blocking
func (us *UpdateSender) Send(msg tea.Msg) {
	select {
	case us.msgChan <- msg:
		us.sentUpdates.Add(1)
	default:
		us.droppedUpdates.Add(1)
	}
}

// Stats returns sent and dropped counters
func (us *UpdateSender) Stats() (sent, dropped uint64) {
	return us.sentUpdates.Load(), us.droppedUpdates.Load()
}

// Next ждёт следующее сообщение; после Close возвращает nil.
func (us *UpdateSender) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-us.msgChan:
			return msg
		case <-us.stop:
			return nil
		}
	}
}

// Forward – обработчик шины событий.
func (us *UpdateSender) Forward(_ context.Context, ev events.Event) error {
	switch e := ev.(type) {
	case events.BalanceUpdatedEvent:
		us.Send(BalanceMsg{Event: e})
	case events.TransactionStateChangedEvent:
		us.Send(TxStateMsg{Kind: e.Kind, State: e.State, Terminal: e.Terminal})
	case events.TransactionCompletedEvent:
		us.Send(TxResultMsg{Event: e})
	case events.TokenListSyncedEvent:
		us.Send(TokensSyncedMsg{Tokens: e.Tokens})
	}
	return nil
}

func (us *UpdateSender) logStats() {
	ticker := time.NewTicker(us.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, dropped := us.Stats()
			if dropped > 0 {
				us.logger.Warn("UI update statistics",
					zap.Uint64("sent", sent),
					zap.Uint64("dropped", dropped),
					zap.Float64("drop_rate", float64(dropped)/float64(sent+dropped)*100))
			}
		case <-us.stop:
			return
		}
	}
}

// Close stops the update sender
func (us *UpdateSender) Close() {
	us.once.Do(func() { close(us.stop) })
}
