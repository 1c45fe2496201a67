package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/pagechat/internal/render"
)

// cliStyles are the decorations of one-shot output, drawn from the active palette
type cliStyles struct {
	label   lipgloss.Style
	bubble  lipgloss.Style
	failure lipgloss.Style
	success lipgloss.Style
	message lipgloss.Style
	elapsed lipgloss.Style
	frames  []lipgloss.Style
}

func currentStyles() cliStyles {
	p := render.CurrentPalette()
	return cliStyles{
		label: lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		bubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Foreground(p.Text).
			Padding(0, 1).
			MarginBottom(1),
		failure: lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		success: lipgloss.NewStyle().Foreground(p.Secondary),
		message: lipgloss.NewStyle().Foreground(p.Text),
		elapsed: lipgloss.NewStyle().Foreground(p.Muted),
		frames: []lipgloss.Style{
			lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
			lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
			lipgloss.NewStyle().Foreground(p.Secondary).Bold(true),
		},
	}
}

// progress draws "<frame> <message> <elapsed>" on one stderr line until stopped.
// Frames come from the bubbles spinner the chat screen uses.
type progress struct {
	w       io.Writer
	message string
	kind    spinner.Spinner
	styles  cliStyles
	started time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSpinner(w io.Writer, message string) *progress {
	return &progress{
		w:       w,
		message: message,
		kind:    spinner.MiniDot,
		styles:  currentStyles(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *progress) start() {
	s.started = time.Now()
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.kind.FPS)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")
		for frame := 0; ; frame++ {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.draw(frame)
			}
		}
	}()
}

func (s *progress) draw(frame int) {
	glyph := s.kind.Frames[frame%len(s.kind.Frames)]
	style := s.styles.frames[(frame/len(s.kind.Frames))%len(s.styles.frames)]
	elapsed := time.Since(s.started).Round(100 * time.Millisecond)

	fmt.Fprintf(s.w, "\r\033[K%s %s %s",
		style.Render(glyph),
		s.styles.message.Render(s.message),
		s.styles.elapsed.Render(elapsed.String()),
	)
}

func (s *progress) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *progress) stopWithSuccess(message string) {
	s.halt()
	fmt.Fprintln(s.w, s.styles.success.Render("✓ "+message))
}

// stopWithError clears the line; the caller prints the failure itself
func (s *progress) stopWithError() {
	s.halt()
}
