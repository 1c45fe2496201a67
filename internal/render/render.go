// Package render turns bot replies into styled terminal text.
package render

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/diogo/pagechat/internal/config"
)

// Glamour styles offered in the config; any other value is treated as a JSON style file
var Styles = []string{"dark", "light", "dracula", "tokyo-night", "pink", "notty", "ascii"}

// Options configures the markdown renderer
type Options struct {
	Width            int
	Style            string
	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return FromConfig(config.DefaultMarkdownConfig())
}

// FromConfig maps the user's markdown settings to renderer options.
// GLAMOUR_STYLE overrides the configured style.
func FromConfig(md config.MarkdownConfig) Options {
	opts := Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	return opts
}

// WithWidth returns a copy of o wrapping at width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

func (o Options) key() string {
	return fmt.Sprintf("%s:%d:%t:%t:%t:%t", o.Style, o.Width, o.EnableEmoji, o.PreserveNewLines, o.TableWrap, o.InlineTableLinks)
}

// glamour.TermRenderer must not be shared between goroutines, so renderers
// are pooled per option set.
var pools sync.Map // key -> *sync.Pool

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// Markdown renders content as styled terminal text
func Markdown(content string, opts Options) (string, error) {
	p, _ := pools.LoadOrStore(opts.key(), &sync.Pool{})
	pool := p.(*sync.Pool)

	r, _ := pool.Get().(*glamour.TermRenderer)
	if r == nil {
		var err error
		if r, err = newRenderer(opts); err != nil {
			return "", fmt.Errorf("failed to create markdown renderer: %w", err)
		}
	}
	defer pool.Put(r)

	return r.Render(content)
}

// Reply renders a bot reply for a bubble of the given width, falling back to
// the plain text when rendering fails
func Reply(content string, opts Options, width int) string {
	if width < 10 {
		width = 10
	}
	out, err := Markdown(content, opts.WithWidth(width))
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
