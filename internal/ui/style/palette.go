package style

import "github.com/charmbracelet/lipgloss"

// Цвета дашборда
var (
	Cyan    = lipgloss.Color("#00E5FF") // основной акцент
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500") // предупреждения
	Green   = lipgloss.Color("#2AFFAA") // успех
	Red     = lipgloss.Color("#FF5555") // ошибки
	Blue    = lipgloss.Color("#3B82F6")

	Base03 = lipgloss.Color("#1B1D23") // фон
	Base02 = lipgloss.Color("#262831")
	Base01 = lipgloss.Color("#6C7280") // приглушённый текст
	Base2  = lipgloss.Color("#ECEFF4") // основной текст
	Base1  = lipgloss.Color("#B4BCC8")
)

// Palette provides a centralized color management
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background    lipgloss.Color
	BackgroundAlt lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Background:    Base03,
		BackgroundAlt: Base02,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,
	}
}
