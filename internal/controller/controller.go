// Package controller wires the chat and scrape forms to the backend and
// records the outcome of each submission in a conversation log.
package controller

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/diogo/pagechat/internal/api"
)

// Messages shown by the controller itself
const (
	MsgEnterURL        = "Please enter a URL"
	MsgScraping        = "Scraping website, please wait..."
	MsgScrapeSuccess   = "Website scraped successfully!"
	SummaryPrefix      = "Summary: "
	NetworkErrorPrefix = "Network error: "
)

// View is where the controller writes entries
type View interface {
	Append(kind Kind, text string) EntryID
	Remove(id EntryID) bool
	ScrollToBottom()
}

// Field is a single-line text input
type Field interface {
	Value() string
	SetValue(string)
}

// Backend performs the two requests
type Backend interface {
	Chat(ctx context.Context, query string) (*api.ChatResponse, error)
	Scrape(ctx context.Context, pageURL string) (*api.ScrapeResponse, error)
}

// Controller handles form submissions. Operations may overlap; each one
// writes to the view as its own response arrives.
type Controller struct {
	backend  Backend
	view     View
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// New creates a Controller
func New(backend Backend, view View) *Controller {
	return &Controller{backend: backend, view: view}
}

// SendMessage submits the chat field. Validation, the user entry and clearing
// the field happen before it returns; the returned channel is closed once the
// reply (or failure) has been written to the view.
func (c *Controller) SendMessage(ctx context.Context, input Field) <-chan struct{} {
	query := input.Value()
	if strings.TrimSpace(query) == "" {
		return closedChan()
	}

	c.view.Append(KindUser, query)
	input.SetValue("")

	return c.start(func() {
		resp, err := c.backend.Chat(ctx, query)
		switch {
		case err != nil:
			c.view.Append(KindError, NetworkErrorPrefix+err.Error())
		case resp == nil:
			c.view.Append(KindError, NetworkErrorPrefix+"empty response")
		case resp.Error != "":
			c.view.Append(KindError, resp.Error)
		default:
			c.view.Append(KindBot, resp.Answer)
		}
		c.view.ScrollToBottom()
	})
}

// ScrapeWebsite submits the URL field. The field keeps its value.
// A placeholder entry is shown while the request runs and removed on every
// outcome.
func (c *Controller) ScrapeWebsite(ctx context.Context, input Field) <-chan struct{} {
	pageURL := input.Value()
	if strings.TrimSpace(pageURL) == "" {
		c.view.Append(KindError, MsgEnterURL)
		return closedChan()
	}

	placeholder := c.view.Append(KindBot, MsgScraping)

	return c.start(func() {
		resp, err := c.backend.Scrape(ctx, pageURL)
		c.view.Remove(placeholder)

		switch {
		case err != nil:
			c.view.Append(KindError, NetworkErrorPrefix+err.Error())
		case resp == nil:
			c.view.Append(KindError, NetworkErrorPrefix+"empty response")
		case resp.Error != "":
			// a summary next to an error is not shown
			c.view.Append(KindError, resp.Error)
		default:
			c.view.Append(KindBot, MsgScrapeSuccess)
			if resp.Summary != "" {
				c.view.Append(KindBot, SummaryPrefix+resp.Summary)
			}
		}
		c.view.ScrollToBottom()
	})
}

func (c *Controller) start(fn func()) <-chan struct{} {
	done := make(chan struct{})
	c.inFlight.Add(1)
	c.wg.Add(1)

	go func() {
		defer func() {
			c.inFlight.Add(-1)
			c.wg.Done()
			close(done)
		}()
		fn()
	}()

	return done
}

// InFlight returns the number of requests still waiting for a response
func (c *Controller) InFlight() int {
	return int(c.inFlight.Load())
}

// Wait blocks until every started operation has finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
