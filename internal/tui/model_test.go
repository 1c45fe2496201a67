package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/pagechat/internal/api"
	"github.com/diogo/pagechat/internal/controller"
	"github.com/diogo/pagechat/internal/render"
)

func newTestModel(t *testing.T, backend controller.Backend, copied *string) Model {
	t.Helper()
	opts := Options{
		ServerURL: "http://127.0.0.1:5000",
		Markdown:  render.Options{Style: "notty", Width: 80},
		Clipboard: func(s string) error {
			if copied == nil {
				return errors.New("no clipboard")
			}
			*copied = s
			return nil
		},
	}
	m := NewModel(context.Background(), backend, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func press(t *testing.T, m Model, keyType tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: keyType})
	return updated.(Model), cmd
}

// finish waits for outstanding operations and delivers their completion
func finish(t *testing.T, m Model) Model {
	t.Helper()
	m.ctrl.Wait()
	updated, _ := m.Update(opDoneMsg{})
	return updated.(Model)
}

func texts(entries []controller.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Kind.String() + ":" + e.Text
	}
	return out
}

func TestModel_NotReadyUntilSized(t *testing.T) {
	m := NewModel(context.Background(), &api.MockClient{}, Options{})
	assert.Contains(t, m.View(), "Initializing")
	assert.NotNil(t, m.Init())
}

func TestModel_ScrapeOnEnter(t *testing.T) {
	backend := &api.MockClient{ScrapeVal: &api.ScrapeResponse{Summary: "A test page."}}
	m := newTestModel(t, backend, nil)

	m.urlInput.SetValue("https://example.com")
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, "https://example.com", m.urlInput.Value(), "url field is kept")

	m = finish(t, m)
	assert.Equal(t, []string{"https://example.com"}, backend.ScrapeCalls)
	assert.Equal(t, []string{
		"bot-message:Website scraped successfully!",
		"bot-message:Summary: A test page.",
	}, texts(m.Log().Entries()))
	assert.Contains(t, m.viewport.View(), "Website scraped successfully!")
}

func TestModel_EmptyURL(t *testing.T) {
	backend := &api.MockClient{}
	m := newTestModel(t, backend, nil)

	m, _ = press(t, m, tea.KeyEnter)
	m = finish(t, m)

	assert.Empty(t, backend.ScrapeCalls)
	assert.Equal(t, []string{"error-message:Please enter a URL"}, texts(m.Log().Entries()))
}

func TestModel_ChatOnEnter(t *testing.T) {
	backend := &api.MockClient{ChatVal: &api.ChatResponse{Answer: "hi"}}
	m := newTestModel(t, backend, nil)

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, focusChat, m.focus)

	m.chatInput.SetValue("  hello  ")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "", m.chatInput.Value(), "chat field is cleared before the reply")

	m = finish(t, m)
	assert.Equal(t, []string{"  hello  "}, backend.ChatCalls)
	assert.Equal(t, []string{"user-message:  hello  ", "bot-message:hi"}, texts(m.Log().Entries()))
}

func TestModel_WhitespaceChatIsIgnored(t *testing.T) {
	backend := &api.MockClient{}
	m := newTestModel(t, backend, nil)
	m, _ = press(t, m, tea.KeyTab)

	m.chatInput.SetValue("   ")
	m, _ = press(t, m, tea.KeyEnter)
	m = finish(t, m)

	assert.Empty(t, backend.ChatCalls)
	assert.Equal(t, 0, m.Log().Len())
	assert.Contains(t, m.View(), "Scrape a page")
}

func TestModel_ErrorEntries(t *testing.T) {
	backend := &api.MockClient{ChatErr: errors.New("timeout")}
	m := newTestModel(t, backend, nil)
	m, _ = press(t, m, tea.KeyTab)

	m.chatInput.SetValue("q")
	m, _ = press(t, m, tea.KeyEnter)
	m = finish(t, m)

	assert.Equal(t, []string{"user-message:q", "error-message:Network error: timeout"}, texts(m.Log().Entries()))
	assert.Contains(t, m.viewport.View(), "Network error: timeout")
}

// fillLog pushes the log well past the viewport height
func fillLog(m Model, n int) {
	for i := 0; i < n; i++ {
		m.Log().Append(controller.KindBot, "line")
	}
	m.Log().ScrollToBottom()
}

func TestModel_ScrolledToBottomAfterOperation(t *testing.T) {
	backend := &api.MockClient{ChatVal: &api.ChatResponse{Answer: "latest"}}
	m := newTestModel(t, backend, nil)

	fillLog(m, 60)
	updated, _ := m.Update(opDoneMsg{})
	m = updated.(Model)
	require.True(t, m.viewport.AtBottom())

	m.viewport.GotoTop()
	require.False(t, m.viewport.AtBottom())

	m, _ = press(t, m, tea.KeyTab)
	m.chatInput.SetValue("q")
	m, _ = press(t, m, tea.KeyEnter)
	m = finish(t, m)

	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "latest")
}

func TestModel_LateCompletionStillScrolls(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, nil)

	fillLog(m, 60)
	m.refresh()
	m.viewport.GotoTop()

	// an operation finishes after the last redraw; its completion message
	// must still bring the new entries into view
	fillLog(m, 20)
	updated, _ := m.Update(opDoneMsg{})
	m = updated.(Model)

	assert.True(t, m.viewport.AtBottom())
}

func TestModel_SpinnerWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	backend := &api.MockClient{
		ScrapeFunc: func(ctx context.Context, pageURL string) (*api.ScrapeResponse, error) {
			<-release
			return &api.ScrapeResponse{}, nil
		},
	}
	m := newTestModel(t, backend, nil)

	m.urlInput.SetValue("example.com")
	m, _ = press(t, m, tea.KeyEnter)
	assert.True(t, m.spinning)
	assert.Contains(t, m.View(), "working")
	assert.Contains(t, texts(m.Log().Entries()), "bot-message:"+controller.MsgScraping)

	close(release)
	m = finish(t, m)
	assert.NotContains(t, texts(m.Log().Entries()), "bot-message:"+controller.MsgScraping)
	assert.NotContains(t, m.View(), "working")
}

func TestModel_CopyLastAnswer(t *testing.T) {
	var copied string
	backend := &api.MockClient{ChatVal: &api.ChatResponse{Answer: "the answer"}}
	m := newTestModel(t, backend, &copied)

	// nothing to copy yet
	_, cmd := press(t, m, tea.KeyCtrlY)
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, copiedMsg{}, msg)
	assert.Error(t, msg.(copiedMsg).err)

	m, _ = press(t, m, tea.KeyTab)
	m.chatInput.SetValue("q")
	m, _ = press(t, m, tea.KeyEnter)
	m = finish(t, m)

	m, cmd = press(t, m, tea.KeyCtrlY)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.Equal(t, "the answer", copied)
	assert.Contains(t, m.View(), "Copied")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, nil)

	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := press(t, m, k)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_ViewLayout(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, nil)
	view := m.View()

	for _, want := range []string{"pagechat", "http://127.0.0.1:5000", "URL", "Question", "Ctrl+Y"} {
		assert.Contains(t, view, want)
	}
	assert.False(t, strings.Contains(view, "Initializing"))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "", FormatError(nil))
	assert.Contains(t, FormatError(errors.New("boom")), "boom")
}
