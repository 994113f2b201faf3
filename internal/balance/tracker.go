// internal/balance/tracker.go
package balance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/scheduler"
)

const refreshJob = "balance-refresh"

var (
	ErrSessionChanged = errors.New("account or network changed during refresh")
	ErrNoSession      = errors.New("no active balance session")
)

// Scheduler – периодический запуск задачи по имени.
type Scheduler interface {
	Schedule(ctx context.Context, name string, every time.Duration, fn scheduler.JobFunc, opts scheduler.Options) error
	Cancel(name string)
}

// Session – пара аккаунт/сеть, к которой привязан снимок.
type Session struct {
	Account solana.PublicKey
	Oracle  *Oracle
}

// Key идентифицирует сессию: account|network.
func (s Session) Key() string {
	return s.Account.String() + "|" + s.Oracle.Network()
}

// Tracker публикует снимки целиком через atomic.Pointer. Ответ, полученный
// для прежней сессии, отбрасывается.
type Tracker struct {
	mu      sync.Mutex
	session *Session
	// gen растёт при каждой смене сессии.
	gen uint64
	// seq выдаёт номер каждому обновлению; applied – номер последнего
	// опубликованного снимка.
	seq     uint64
	applied uint64
	current atomic.Pointer[Snapshot]
	// inFlight – число незавершённых обновлений.
	inFlight atomic.Int32

	sched    Scheduler
	interval time.Duration
	bus      events.Publisher
	logger   *zap.Logger
}

func NewTracker(sched Scheduler, interval time.Duration, bus events.Publisher, logger *zap.Logger) *Tracker {
	return &Tracker{
		sched:    sched,
		interval: interval,
		bus:      bus,
		logger:   logger.Named("balance-tracker"),
	}
}

// Switch начинает новую сессию: снимок сбрасывается, прежняя задача снимается,
// новая ставится с немедленным первым запуском.
func (t *Tracker) Switch(ctx context.Context, session Session) error {
	t.mu.Lock()
	if t.sched != nil {
		t.sched.Cancel(refreshJob)
	}
	t.session = &session
	t.gen++
	t.current.Store(nil)
	t.mu.Unlock()

	t.logger.Info("Balance session started",
		zap.String("account", session.Account.String()),
		zap.String("network", session.Oracle.Network()))

	if t.sched == nil || t.interval <= 0 {
		return nil
	}
	return t.sched.Schedule(ctx, refreshJob, t.interval, func(ctx context.Context) error {
		_, err := t.Refresh(ctx)
		if errors.Is(err, ErrSessionChanged) {
			return nil
		}
		return err
	}, scheduler.Options{RunImmediately: true})
}

// Stop снимает периодическое обновление и закрывает сессию.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sched != nil {
		t.sched.Cancel(refreshJob)
	}
	t.session = nil
	t.gen++
	t.current.Store(nil)
}

// Current возвращает последний опубликованный снимок или nil.
func (t *Tracker) Current() *Snapshot {
	return t.current.Load()
}

// Refreshing сообщает, идёт ли сейчас обновление.
func (t *Tracker) Refreshing() bool {
	return t.inFlight.Load() > 0
}

// Refresh запрашивает новый снимок и публикует его, если сессия не сменилась
// и более позднее обновление ещё не опубликовано. Недоступный снимок тоже
// публикуется: баланс становится "неизвестен".
func (t *Tracker) Refresh(ctx context.Context) (*Snapshot, error) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return nil, ErrNoSession
	}
	session := *t.session
	gen := t.gen
	t.seq++
	ticket := t.seq
	t.mu.Unlock()
	key := session.Key()

	t.inFlight.Add(1)
	snap := session.Oracle.Fetch(ctx, session.Account)
	t.inFlight.Add(-1)

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		t.logger.Debug("Discarding stale balance snapshot", zap.String("session", key))
		return nil, ErrSessionChanged
	}
	if ticket < t.applied {
		// более позднее обновление уже опубликовано
		newer := t.current.Load()
		t.mu.Unlock()
		t.logger.Debug("Discarding superseded balance snapshot", zap.String("session", key), zap.Uint64("ticket", ticket))
		return newer, newer.Err
	}
	t.applied = ticket
	t.current.Store(snap)
	t.mu.Unlock()

	if t.bus != nil {
		ev := events.BalanceUpdatedEvent{
			BaseEvent: events.NewBase(events.BalanceUpdated),
			Account:   snap.Account,
			Network:   snap.Network,
			Available: snap.Available(),
			Holdings:  len(snap.Holdings),
		}
		if snap.Native != nil {
			ev.Lamports = *snap.Native
		}
		_ = t.bus.Publish(ev)
	}
	return snap, snap.Err
}
