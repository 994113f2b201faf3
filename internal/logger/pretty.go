// internal/logger/pretty.go
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

func prettyEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(ColorCyan + "[DEBUG]" + ColorReset)
	case zapcore.InfoLevel:
		enc.AppendString(ColorGreen + "[INFO]" + ColorReset)
	case zapcore.WarnLevel:
		enc.AppendString(ColorYellow + "[WARN]" + ColorReset)
	case zapcore.ErrorLevel:
		enc.AppendString(ColorRed + "[ERROR]" + ColorReset)
	case zapcore.FatalLevel:
		enc.AppendString(ColorRed + ColorBold + "[FATAL]" + ColorReset)
	default:
		enc.AppendString("[" + level.CapitalString() + "]")
	}
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// prettyCore пишет в консоль только сообщение, переписанное FormatMessage.
// Поля остаются в JSON-файле.
type prettyCore struct {
	core   zapcore.Core
	fields []zapcore.Field
}

func newPrettyCore(ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	return &prettyCore{core: zapcore.NewCore(zapcore.NewConsoleEncoder(prettyEncoderConfig()), zapcore.Lock(ws), level)}
}

func (c *prettyCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *prettyCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &prettyCore{core: c.core, fields: merged}
}

func (c *prettyCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *prettyCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field{}, c.fields...), fields...)
	entry.Message = FormatMessage(entry.Message, all...)
	return c.core.Write(entry, nil)
}

func (c *prettyCore) Sync() error {
	return c.core.Sync()
}

// FormatMessage делает ключевые сообщения кошелька читаемыми.
func FormatMessage(msg string, fields ...zapcore.Field) string {
	switch msg {
	case "Transaction sent":
		return fmt.Sprintf("%s📤 Transaction sent: %s%s", ColorYellow, shortenSignature(extractField(fields, "signature")), ColorReset)
	case "Transaction confirmed":
		return fmt.Sprintf("%s✅ Transaction confirmed: %s%s", ColorGreen, shortenSignature(extractField(fields, "signature")), ColorReset)
	case "Transaction outcome unknown":
		return fmt.Sprintf("%s⚠ Outcome unknown: %s, check the explorer before retrying%s", ColorYellow+ColorBold, shortenSignature(extractField(fields, "signature")), ColorReset)
	case "Swap transaction prepared":
		return fmt.Sprintf("%s🔁 Swap prepared: %s → %s%s", ColorCyan,
			shortenAddress(extractField(fields, "input_mint")), shortenAddress(extractField(fields, "output_mint")), ColorReset)
	case "Token list synced":
		return fmt.Sprintf("%s📋 Token list synced: %s tokens%s", ColorBlue, extractField(fields, "tokens"), ColorReset)
	}
	if errText := extractField(fields, "error"); errText != "" {
		return msg + ": " + errText
	}
	return msg
}

func extractField(fields []zapcore.Field, key string) string {
	for _, f := range fields {
		if f.Key != key {
			continue
		}
		switch f.Type {
		case zapcore.StringType:
			return f.String
		case zapcore.Int64Type, zapcore.Int32Type, zapcore.Uint64Type, zapcore.Uint32Type:
			return fmt.Sprintf("%d", f.Integer)
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				return err.Error()
			}
		}
		if f.Interface != nil {
			return fmt.Sprintf("%v", f.Interface)
		}
		return f.String
	}
	return ""
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

func shortenSignature(sig string) string {
	if len(sig) > 16 {
		return sig[:8] + "..." + sig[len(sig)-8:]
	}
	return sig
}
