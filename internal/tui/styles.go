// Package tui provides the terminal user interface for pagechat.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/pagechat/internal/errors"
	"github.com/diogo/pagechat/internal/render"
)

var (
	headerStyle     lipgloss.Style
	titleStyle      lipgloss.Style
	subtitleStyle   lipgloss.Style
	hintStyle       lipgloss.Style
	logPanelStyle   lipgloss.Style
	userLabelStyle  lipgloss.Style
	userBubbleStyle lipgloss.Style
	botLabelStyle   lipgloss.Style
	botBubbleStyle  lipgloss.Style
	errorStyle      lipgloss.Style
	inputPanelStyle lipgloss.Style
	focusedPanel    lipgloss.Style
	inputLabelStyle lipgloss.Style
	spinnerStyle    lipgloss.Style
	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	welcomeStyle    lipgloss.Style
)

func init() {
	UpdateTheme()
}

// UpdateTheme rebuilds every style from the active palette
func UpdateTheme() {
	p := render.CurrentPalette()

	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(p.TextDim)
	hintStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)

	logPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true).MarginLeft(4)
	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Secondary).
		Foreground(p.Text).
		Padding(0, 1).
		MarginLeft(4)

	botLabelStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	botBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Foreground(p.Text).
		Padding(0, 1).
		MarginRight(4)

	errorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	focusedPanel = inputPanelStyle.BorderForeground(p.Accent)

	inputLabelStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)

	statusBarStyle = lipgloss.NewStyle().Foreground(p.Muted)
	statusKeyStyle = lipgloss.NewStyle().Foreground(p.TextDim).Bold(true)
	statusDescStyle = lipgloss.NewStyle().Foreground(p.Muted)

	welcomeStyle = lipgloss.NewStyle().Foreground(p.TextDim).Italic(true)
}

// FormatError returns a styled error message with whatever context the
// error carries
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	p := render.CurrentPalette()
	errStyle := lipgloss.NewStyle().Foreground(p.Error)
	dimStyle := lipgloss.NewStyle().Foreground(p.TextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or raise timeout_seconds"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Is the server running? Start it with 'pagechat serve'"))
	case apierrors.IsValidationError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check the value and try again"))
	}

	return sb.String()
}

// PrintError writes a styled error message to w
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err))
}
