package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed boxed at the start of a harvesting command
const Banner = "t a g h a r v e s t\nhashtag ids · engagement stats · trend series"

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stdout
	colorOff bool
)

// SetOutput redirects terminal output, mainly for tests
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// Output returns the current terminal writer
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// SetColor turns ANSI colors on or off
func SetColor(enabled bool) {
	outMu.Lock()
	defer outMu.Unlock()
	colorOff = !enabled
}

func colorEnabled() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return !colorOff
}

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonRed     = lipgloss.Color("#FF3131")
	dimWhite    = lipgloss.Color("#B0B0B0")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Margin(1, 2)
)

var (
	Cyan    = styled(lipgloss.NewStyle().Foreground(neonCyan))
	Yellow  = styled(lipgloss.NewStyle().Foreground(neonYellow))
	Red     = styled(lipgloss.NewStyle().Foreground(neonRed).Bold(true))
	Green   = styled(lipgloss.NewStyle().Foreground(neonGreen))
	Magenta = styled(lipgloss.NewStyle().Foreground(neonMagenta))
	Dim     = styled(lipgloss.NewStyle().Foreground(dimWhite).Faint(true))
)

func styled(style lipgloss.Style) func(string) string {
	return func(text string) string {
		if !colorEnabled() {
			return text
		}
		return style.Render(text)
	}
}

func printLine(s string) {
	fmt.Fprintln(Output(), s)
}

func PrintBanner() {
	style := bannerStyle
	if colorEnabled() {
		style = style.BorderForeground(neonMagenta).Foreground(neonCyan)
	}
	fmt.Fprintln(Output(), style.Render(Banner))
}

// PrintError prints msg in red, followed by the first arg when given
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	printLine(Red(msg))
}

func PrintSuccess(msg string) {
	printLine(Green(msg))
}

func PrintInfo(label, value string) {
	fmt.Fprintf(Output(), "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	printLine(Yellow(msg))
}

func PrintHighlight(msg string) {
	printLine(Magenta(msg))
}
