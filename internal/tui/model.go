package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/pagechat/internal/controller"
	"github.com/diogo/pagechat/internal/render"
)

type focus int

const (
	focusURL focus = iota
	focusChat
)

// Message types for the TUI
type (
	// opDoneMsg is sent when a controller operation has finished
	opDoneMsg struct{}
	copiedMsg struct {
		err error
	}
)

// Options configures the chat TUI
type Options struct {
	ServerURL string
	Markdown  render.Options
	// Clipboard writes text to the system clipboard; defaults to atotto/clipboard
	Clipboard func(string) error
}

// Model is the bubbletea model of the chat screen
type Model struct {
	ctx  context.Context
	ctrl *controller.Controller
	log  *controller.Log
	opts Options

	viewport  viewport.Model
	urlInput  textinput.Model
	chatInput textarea.Model
	spinner   spinner.Model

	focus    focus
	spinning bool
	status   string
	ready    bool

	width  int
	height int
}

// NewModel creates the chat model. Operations started from the UI run
// against backend and are bound to ctx.
func NewModel(ctx context.Context, backend controller.Backend, opts Options) Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Markdown.Style == "" {
		opts.Markdown = render.DefaultOptions()
	}

	log := controller.NewLog()

	ti := textinput.New()
	ti.Placeholder = "https://example.com"
	ti.Prompt = ""
	ti.CharLimit = 2048
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "Ask a question about the page..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle = ta.FocusedStyle
	ta.Blur()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = spinnerStyle

	return Model{
		ctx:       ctx,
		ctrl:      controller.New(backend, log),
		log:       log,
		opts:      opts,
		urlInput:  ti,
		chatInput: ta,
		spinner:   s,
		focus:     focusURL,
	}
}

// Log returns the message log shown by the model
func (m Model) Log() *controller.Log {
	return m.log
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// waitFor turns the completion of a controller operation into a message
func waitFor(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return opDoneMsg{}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil

		case "ctrl+y":
			return m, m.copyLastAnswer()

		case "enter":
			var done <-chan struct{}
			if m.focus == focusURL {
				done = m.ctrl.ScrapeWebsite(m.ctx, &m.urlInput)
			} else {
				done = m.ctrl.SendMessage(m.ctx, &m.chatInput)
			}
			m.status = ""
			m.refresh()
			spin := m.startSpinner()
			return m, tea.Batch(waitFor(done), spin)

		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.focus == focusURL {
			m.urlInput, cmd = m.urlInput.Update(msg)
		} else {
			m.chatInput, cmd = m.chatInput.Update(msg)
		}
		cmds = append(cmds, cmd)

	case opDoneMsg:
		m.refresh()

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied last answer to clipboard"
		}

	case spinner.TickMsg:
		if m.ctrl.InFlight() == 0 {
			m.spinning = false
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) toggleFocus() {
	if m.focus == focusURL {
		m.focus = focusChat
		m.urlInput.Blur()
		m.chatInput.Focus()
		return
	}
	m.focus = focusURL
	m.chatInput.Blur()
	m.urlInput.Focus()
}

func (m Model) copyLastAnswer() tea.Cmd {
	entry, ok := m.log.Last(controller.KindBot)
	if !ok {
		return func() tea.Msg { return copiedMsg{err: errNothingToCopy} }
	}
	write := m.opts.Clipboard
	return func() tea.Msg {
		return copiedMsg{err: write(entry.Text)}
	}
}

type copyError string

func (e copyError) Error() string { return string(e) }

const errNothingToCopy = copyError("no answer yet")

// layout sizes the components to the terminal
func (m *Model) layout() {
	const (
		headerHeight = 3
		urlHeight    = 4 // label, input, border
		chatHeight   = 5 // label, two textarea lines, border
		statusHeight = 1
		logBorder    = 2
	)

	contentWidth := m.width - 2
	if contentWidth < 20 {
		contentWidth = 20
	}
	vpHeight := m.height - headerHeight - urlHeight - chatHeight - statusHeight - logBorder
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth-4, vpHeight)
		m.viewport.KeyMap = viewport.KeyMap{
			PageDown: key.NewBinding(key.WithKeys("pgdown")),
			PageUp:   key.NewBinding(key.WithKeys("pgup")),
		}
		m.ready = true
	} else {
		m.viewport.Width = contentWidth - 4
		m.viewport.Height = vpHeight
	}
	m.urlInput.Width = contentWidth - 6
	m.chatInput.SetWidth(contentWidth - 4)
}

// refresh redraws the log and honours a pending scroll request
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	// Take the request before rendering so the entries it was made for are
	// part of the content it scrolls.
	scroll := m.log.TakeScroll()
	m.viewport.SetContent(m.renderLog())
	if scroll {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderLog() string {
	entries := m.log.Entries()
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch e.Kind {
		case controller.KindUser:
			sb.WriteString(userLabelStyle.Render("You"))
			sb.WriteString("\n")
			sb.WriteString(userBubbleStyle.Width(bubbleWidth).Render(e.Text))
		case controller.KindBot:
			sb.WriteString(botLabelStyle.Render("pagechat"))
			sb.WriteString("\n")
			sb.WriteString(botBubbleStyle.Width(bubbleWidth).Render(render.Reply(e.Text, m.opts.Markdown, bubbleWidth-4)))
		case controller.KindError:
			sb.WriteString(errorStyle.Width(bubbleWidth).Render("✗ " + e.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return spinnerStyle.Render("  Initializing...")
	}

	contentWidth := m.viewport.Width + 4

	header := headerStyle.Width(contentWidth - 2).Render(lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("pagechat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ServerURL),
	))

	logContent := m.viewport.View()
	if m.log.Len() == 0 {
		logContent = welcomeStyle.Render("Scrape a page, then ask questions about it.")
	}
	logPanel := logPanelStyle.Width(contentWidth - 2).Height(m.viewport.Height).Render(logContent)

	urlPanel := m.panel(focusURL, contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		inputLabelStyle.Render("URL"),
		m.urlInput.View(),
	))
	chatPanel := m.panel(focusChat, contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		inputLabelStyle.Render("Question"),
		m.chatInput.View(),
	))

	return lipgloss.JoinVertical(lipgloss.Left, header, logPanel, urlPanel, chatPanel, m.renderStatusBar())
}

func (m Model) panel(f focus, width int) lipgloss.Style {
	if m.focus == f {
		return focusedPanel.Width(width - 2)
	}
	return inputPanelStyle.Width(width - 2)
}

// renderStatusBar renders the bottom bar with the spinner and shortcuts
func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.ctrl.InFlight() > 0:
		left = m.spinner.View() + " working"
	case m.status != "":
		left = hintStyle.Render(m.status)
	}

	shortcuts := []struct{ key, desc string }{
		{"Enter", "Submit"},
		{"Tab", "Switch field"},
		{"Ctrl+Y", "Copy answer"},
		{"PgUp/PgDn", "Scroll"},
		{"Esc", "Quit"},
	}
	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, "  │  ")
	if left != "" {
		bar = left + "   " + bar
	}
	return statusBarStyle.Render(bar)
}

// Run starts the chat TUI and blocks until the user quits
func Run(ctx context.Context, backend controller.Backend, opts Options) error {
	p := tea.NewProgram(
		NewModel(ctx, backend, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
