package component

import (
	"fmt"
	"strings"

	"github.com/rovshanmuradov/solana-wallet/internal/logger"
	"github.com/rovshanmuradov/solana-wallet/internal/ui/style"
)

// LogSource – источник последних записей лога.
type LogSource interface {
	Recent(limit int) []logger.Entry
}

// CompactLogViewer shows the last few log entries below the balances
type CompactLogViewer struct {
	source LogSource
	styles style.Styles
	lines  int
	title  string
}

// NewCompactLogViewer creates a new compact log viewer
func NewCompactLogViewer(source LogSource, styles style.Styles, lines int) *CompactLogViewer {
	if lines <= 0 {
		lines = 5
	}
	return &CompactLogViewer{
		source: source,
		styles: styles,
		lines:  lines,
		title:  "Recent Logs",
	}
}

// View renders the log panel
func (clv *CompactLogViewer) View() string {
	if clv.source == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(clv.styles.Title.Render(clv.title))
	entries := clv.source.Recent(clv.lines)
	if len(entries) == 0 {
		b.WriteString("\n")
		b.WriteString(clv.styles.Muted.Render("  (empty)"))
		return b.String()
	}
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(clv.formatLogEntry(e))
	}
	return b.String()
}

func (clv *CompactLogViewer) formatLogEntry(entry logger.Entry) string {
	ts := clv.styles.Muted.Render(entry.Timestamp.Format("15:04:05"))
	level := strings.ToUpper(entry.Level)
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		level = clv.styles.Error.Render(fmt.Sprintf("%-5s", level))
	case "WARN":
		level = clv.styles.Warning.Render(fmt.Sprintf("%-5s", level))
	case "DEBUG":
		level = clv.styles.Muted.Render(fmt.Sprintf("%-5s", level))
	default:
		level = clv.styles.Info.Render(fmt.Sprintf("%-5s", level))
	}
	msg := entry.Message
	if errText, ok := entry.Fields["error"]; ok {
		msg = fmt.Sprintf("%s: %v", msg, errText)
	}
	return fmt.Sprintf("%s %s %s", ts, level, clv.styles.Text.Render(msg))
}
