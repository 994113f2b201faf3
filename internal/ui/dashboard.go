package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/ui/component"
	"github.com/rovshanmuradov/solana-wallet/internal/ui/style"
)

const tickInterval = time.Second

// Balances – источник снимков для дашборда (balance.Tracker).
type Balances interface {
	Current() *balance.Snapshot
	Refreshing() bool
	Refresh(ctx context.Context) (*balance.Snapshot, error)
}

// Config – зависимости дашборда.
type Config struct {
	Account  string
	Network  string
	Balances Balances
	Logs     component.LogSource
	Updates  *UpdateSender
}

// Model – корневая модель bubbletea.
type Model struct {
	ctx    context.Context
	cfg    Config
	keys   KeyMap
	styles style.Styles
	logger *zap.Logger

	header  *component.StatusHeader
	logs    *component.CompactLogViewer
	table   table.Model
	spinner spinner.Model
	help    help.Model

	snapshot   *balance.Snapshot
	refreshing bool
	txState    string
	lastTx     *events.TransactionCompletedEvent
	notice     string
	err        error
	width      int
}

func NewModel(ctx context.Context, cfg Config, logger *zap.Logger) Model {
	styles := style.NewStyles(style.DefaultPalette())

	t := table.New(
		table.WithColumns(balanceColumns(80)),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(styles.Table)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Warning

	m := Model{
		ctx:     ctx,
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		styles:  styles,
		logger:  logger.Named("dashboard"),
		header:  component.NewStatusHeader(styles, cfg.Account, cfg.Network),
		logs:    component.NewCompactLogViewer(cfg.Logs, styles, 5),
		table:   t,
		spinner: sp,
		help:    help.New(),
	}
	if cfg.Balances != nil {
		m.setSnapshot(cfg.Balances.Current())
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.next(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			m.notice = ""
			return m, m.refresh()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.header.SetWidth(msg.Width)
		m.table.SetColumns(balanceColumns(msg.Width))
		m.help.Width = msg.Width
		return m, nil

	case RefreshDoneMsg:
		m.refreshing = false
		if msg.Err != nil && !errors.Is(msg.Err, balance.ErrSessionChanged) {
			m.err = msg.Err
		} else {
			m.err = nil
		}
		if msg.Snapshot != nil {
			m.setSnapshot(msg.Snapshot)
		}
		return m, nil

	case BalanceMsg:
		if m.cfg.Balances != nil {
			m.setSnapshot(m.cfg.Balances.Current())
		}
		return m, m.next()

	case TxStateMsg:
		m.txState = fmt.Sprintf("%s: %s", msg.Kind, msg.State)
		if !msg.Terminal {
			// началась новая отправка: прежний итог больше не актуален
			m.lastTx = nil
		}
		return m, m.next()

	case TxResultMsg:
		ev := msg.Event
		m.lastTx = &ev
		return m, m.next()

	case TokensSyncedMsg:
		m.notice = "Token list updated"
		return m, m.next()

	case TickMsg:
		if m.cfg.Balances != nil {
			m.refreshing = m.refreshing || m.cfg.Balances.Refreshing()
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	m.header.SetRefreshing(m.refreshing, m.spinner.View())
	if m.snapshot != nil {
		m.header.SetSnapshotState(m.snapshot.Available(), m.snapshot.FetchedAt)
	}

	sections := []string{m.header.View()}

	switch {
	case m.snapshot == nil:
		sections = append(sections, m.styles.Muted.Render("Loading balances…"))
	case !m.snapshot.Available():
		msg := "Balance unknown"
		if m.snapshot.Err != nil {
			msg += ": " + m.snapshot.Err.Error()
		}
		sections = append(sections, m.styles.Error.Render(msg))
	default:
		sections = append(sections, m.table.View())
	}
	if m.err != nil {
		sections = append(sections, m.styles.Error.Render("Refresh failed: "+m.err.Error()))
	}
	if m.notice != "" {
		sections = append(sections, m.styles.Info.Render(m.notice))
	}

	sections = append(sections, m.txView())
	if view := m.logs.View(); view != "" {
		sections = append(sections, view)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) txView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Last Transaction"))
	b.WriteString("\n")
	if m.lastTx == nil {
		if m.txState != "" {
			b.WriteString(m.styles.Warning.Render(m.txState))
		} else {
			b.WriteString(m.styles.Muted.Render("none in this session"))
		}
		return b.String()
	}
	tx := m.lastTx
	status := m.styles.Success.Render("confirmed")
	switch {
	case tx.Ambiguous:
		status = m.styles.Warning.Render("unknown: check the explorer before retrying")
	case !tx.Success:
		status = m.styles.Error.Render(fmt.Sprintf("%s (%s)", tx.State, tx.ErrorKind))
	}
	fmt.Fprintf(&b, "%s %s %s  %s", tx.Kind, tx.Amount, component.ShortAddress(tx.Mint), status)
	if tx.ExplorerURL != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Info.Render(tx.ExplorerURL))
	}
	return b.String()
}

func (m *Model) setSnapshot(snap *balance.Snapshot) {
	if snap == nil {
		return
	}
	m.snapshot = snap
	m.table.SetRows(snapshotRows(snap))
}

func (m Model) refresh() tea.Cmd {
	if m.cfg.Balances == nil {
		return nil
	}
	ctx := m.ctx
	balances := m.cfg.Balances
	return func() tea.Msg {
		snap, err := balances.Refresh(ctx)
		return RefreshDoneMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) next() tea.Cmd {
	if m.cfg.Updates == nil {
		return nil
	}
	return m.cfg.Updates.Next()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func balanceColumns(width int) []table.Column {
	mintWidth := width - 40
	if mintWidth < 12 {
		mintWidth = 12
	}
	if mintWidth > 44 {
		mintWidth = 44
	}
	return []table.Column{
		{Title: "Asset", Width: 10},
		{Title: "Balance", Width: 22},
		{Title: "Mint", Width: mintWidth},
	}
}

func snapshotRows(snap *balance.Snapshot) []table.Row {
	if !snap.Available() {
		return nil
	}
	rows := []table.Row{{"SOL", amount.FormatDisplay(*snap.Native, amount.NativeDecimals), "native"}}
	for _, h := range snap.Holdings {
		rows = append(rows, table.Row{h.Metadata.Symbol, h.Display().String(), h.Mint})
	}
	return rows
}

// Run запускает дашборд до нажатия q или отмены ctx.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(ctx, cfg, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
