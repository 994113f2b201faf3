// internal/swap/quoter.go
package swap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/scheduler"
)

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultQuoteTTL        = 30 * time.Second
	DefaultSlippageBps     = 50

	refreshJob = "swap-quote-refresh"
)

// State – состояние котировщика.
type State string

const (
	StateIdle          State = "idle"
	StateFetchingQuote State = "fetching_quote"
	StateQuoteReady    State = "quote_ready"
	StateQuoteError    State = "quote_error"
)

// Input – пользовательский ввод формы свопа.
type Input struct {
	InputMint   string
	OutputMint  string
	Amount      string
	InDecimals  uint8
	OutDecimals uint8
	SlippageBps uint16
}

func (in Input) fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%d", in.InputMint, in.OutputMint, strings.TrimSpace(in.Amount), in.SlippageBps)
}

// View – неизменяемое состояние котировщика для отображения.
type View struct {
	State      State
	Generation uint64
	Input      Input
	Quote      *Quote
	// OutAmount – выход котировки в отображаемых единицах; пуст вне quote_ready.
	OutAmount string
	Err       error
	UpdatedAt time.Time
}

// Scheduler – периодический запуск задачи по имени.
type Scheduler interface {
	Schedule(ctx context.Context, name string, every time.Duration, fn scheduler.JobFunc, opts scheduler.Options) error
	Cancel(name string)
}

// QuoterConfig задаёт тайминги котировщика.
type QuoterConfig struct {
	RefreshInterval time.Duration
	QuoteTTL        time.Duration
}

// Quoter – машина состояний idle → fetching_quote → quote_ready | quote_error.
// Каждый запрос помечается поколением; ответ применяется, только если поколение
// всё ещё текущее (побеждает последний ввод, а не последний ответ).
type Quoter struct {
	agg    Aggregator
	sched  Scheduler
	bus    events.Publisher
	cfg    QuoterConfig
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	gen    uint64
	view   View
	cancel context.CancelFunc
}

func NewQuoter(agg Aggregator, sched Scheduler, bus events.Publisher, cfg QuoterConfig, logger *zap.Logger) *Quoter {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = DefaultQuoteTTL
	}
	return &Quoter{
		agg:    agg,
		sched:  sched,
		bus:    bus,
		cfg:    cfg,
		logger: logger.Named("swap-quoter"),
		now:    time.Now,
		view:   View{State: StateIdle},
	}
}

// Current возвращает текущее состояние.
func (q *Quoter) Current() View {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.view
}

// Update применяет новый ввод и синхронно запрашивает котировку.
// Если за время запроса ввод сменился, результат отбрасывается и
// возвращается актуальное состояние.
func (q *Quoter) Update(ctx context.Context, in Input) View {
	gen, req, ok := q.begin(in)
	if !ok {
		return q.Current()
	}
	return q.fetch(ctx, gen, in, req)
}

// Watch делает то же, что Update, и ставит периодическое обновление
// котировки при неизменном вводе.
func (q *Quoter) Watch(ctx context.Context, in Input) View {
	view := q.Update(ctx, in)
	if q.sched == nil {
		return view
	}
	if view.State == StateIdle {
		q.sched.Cancel(refreshJob)
		return view
	}
	err := q.sched.Schedule(ctx, refreshJob, q.cfg.RefreshInterval, func(ctx context.Context) error {
		q.Refresh(ctx)
		return nil
	}, scheduler.Options{})
	if err != nil {
		q.logger.Warn("Failed to schedule quote refresh", zap.Error(err))
	}
	return view
}

// Refresh повторяет запрос для текущего ввода.
func (q *Quoter) Refresh(ctx context.Context) View {
	q.mu.Lock()
	in := q.view.Input
	idle := q.view.State == StateIdle
	q.mu.Unlock()
	if idle {
		return q.Current()
	}
	return q.Update(ctx, in)
}

// Accept возвращает котировку, пригодную для сборки свопа.
func (q *Quoter) Accept() (*Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.view.State != StateQuoteReady || q.view.Quote == nil {
		return nil, ErrNoQuote
	}
	if q.view.Quote.Expired(q.now(), q.cfg.QuoteTTL) {
		return nil, ErrQuoteStale
	}
	return q.view.Quote, nil
}

// Stop снимает обновление, отменяет запрос в полёте и возвращает в idle.
func (q *Quoter) Stop() {
	if q.sched != nil {
		q.sched.Cancel(refreshJob)
	}
	q.mu.Lock()
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.view = View{State: StateIdle, Generation: q.gen, UpdatedAt: q.now()}
	view := q.view
	q.mu.Unlock()
	q.publish(view)
}

// begin регистрирует ввод под новым поколением. ok=false, если запрос не нужен.
func (q *Quoter) begin(in Input) (uint64, QuoteRequest, bool) {
	req, err := q.request(in)

	q.mu.Lock()
	q.gen++
	gen := q.gen
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}

	var view View
	switch {
	case err == nil:
		view = View{State: StateFetchingQuote, Generation: gen, Input: in, UpdatedAt: q.now()}
	case strings.TrimSpace(in.Amount) == "":
		view = View{State: StateIdle, Generation: gen, Input: in, UpdatedAt: q.now()}
	default:
		view = View{State: StateQuoteError, Generation: gen, Input: in, Err: err, UpdatedAt: q.now()}
	}
	q.view = view
	q.mu.Unlock()

	q.publish(view)
	return gen, req, err == nil
}

// request переводит ввод в запрос.
func (q *Quoter) request(in Input) (QuoteRequest, error) {
	const op = "swap.Quoter"
	if strings.TrimSpace(in.Amount) == "" {
		return QuoteRequest{}, walleterr.Validation(op, "amount is required")
	}
	if in.InputMint == "" || in.OutputMint == "" {
		return QuoteRequest{}, walleterr.Validation(op, "select both tokens")
	}
	if in.InputMint == in.OutputMint {
		return QuoteRequest{}, walleterr.Validation(op, "input and output tokens must differ")
	}
	raw, err := amount.ParseDisplay(in.Amount, in.InDecimals)
	if err != nil {
		return QuoteRequest{}, err
	}
	slippage := in.SlippageBps
	if slippage == 0 {
		slippage = DefaultSlippageBps
	}
	return QuoteRequest{InputMint: in.InputMint, OutputMint: in.OutputMint, Amount: raw, SlippageBps: slippage}, nil
}

func (q *Quoter) fetch(ctx context.Context, gen uint64, in Input, req QuoteRequest) View {
	reqCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	if q.gen == gen {
		q.cancel = cancel
	}
	q.mu.Unlock()
	defer cancel()

	quote, err := q.agg.Quote(reqCtx, req)

	q.mu.Lock()
	if q.gen != gen {
		current := q.view
		q.mu.Unlock()
		q.logger.Debug("Discarding superseded quote",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", current.Generation),
			zap.String("input", in.fingerprint()))
		return current
	}
	q.cancel = nil

	view := View{Generation: gen, Input: in, UpdatedAt: q.now()}
	if err != nil {
		view.State = StateQuoteError
		view.Err = err
	} else {
		view.State = StateQuoteReady
		view.Quote = quote
		view.OutAmount = amount.FormatDisplay(quote.OutAmount, in.OutDecimals)
	}
	q.view = view
	q.mu.Unlock()

	if err != nil {
		q.logger.Warn("Quote failed", zap.String("input", in.fingerprint()), zap.Error(err))
	}
	q.publish(view)
	return view
}

func (q *Quoter) publish(v View) {
	if q.bus == nil {
		return
	}
	ev := events.QuoteUpdatedEvent{
		BaseEvent:  events.NewBase(events.QuoteUpdated),
		Generation: v.Generation,
		State:      string(v.State),
		OutAmount:  v.OutAmount,
	}
	if v.Err != nil {
		ev.Error = v.Err.Error()
	}
	_ = q.bus.Publish(ev)
}
