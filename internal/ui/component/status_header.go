package component

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-wallet/internal/ui/style"
)

// StatusHeader shows the account, cluster and refresh state
type StatusHeader struct {
	account    string
	network    string
	refreshing bool
	available  bool
	updatedAt  time.Time
	spinner    string
	styles     style.Styles
	width      int
}

// NewStatusHeader creates a new status header component
func NewStatusHeader(styles style.Styles, account, network string) *StatusHeader {
	return &StatusHeader{
		account: account,
		network: network,
		styles:  styles,
	}
}

// SetSnapshotState записывает доступность и время последнего снимка.
func (sh *StatusHeader) SetSnapshotState(available bool, updatedAt time.Time) {
	sh.available = available
	sh.updatedAt = updatedAt
}

// SetRefreshing включает индикатор; frame – текущий кадр спиннера.
func (sh *StatusHeader) SetRefreshing(refreshing bool, frame string) {
	sh.refreshing = refreshing
	sh.spinner = frame
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
}

// View renders the header
func (sh *StatusHeader) View() string {
	parts := []string{
		sh.styles.Title.Render("◎ Solana Wallet"),
		sh.styles.Text.Render(ShortAddress(sh.account)),
		sh.styles.Info.Render(sh.network),
	}

	switch {
	case sh.refreshing:
		parts = append(parts, sh.styles.Warning.Render(strings.TrimSpace(sh.spinner+" refreshing")))
	case sh.updatedAt.IsZero():
		parts = append(parts, sh.styles.Muted.Render("no data"))
	case !sh.available:
		parts = append(parts, sh.styles.Error.Render("balance unavailable"))
	default:
		parts = append(parts, sh.styles.Success.Render("updated "+sh.updatedAt.Format("15:04:05")))
	}

	panel := sh.styles.Panel
	if sh.width > 4 {
		panel = panel.Width(sh.width - 4)
	}
	return panel.Render(lipgloss.JoinHorizontal(lipgloss.Center, join(parts, "  │  ")...))
}

func join(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

// ShortAddress сокращает адрес до вида "AbCd…WxYz".
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return fmt.Sprintf("%s…%s", addr[:4], addr[len(addr)-4:])
}
