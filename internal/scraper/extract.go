package scraper

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// mainContentSelectors are tried in order; the first that matches is the content root
var mainContentSelectors = []string{
	"main",
	"article",
	"#content",
	".content",
	"[role='main']",
	"#main-content",
}

// importantSelector lists the elements reported inside the content root
const importantSelector = "h1, h2, h3, h4, p, li, table, dl, blockquote"

// ExtractHTML turns an HTML document into labelled text lines:
// META_DESCRIPTION, TITLE, then one "TAG: text" line per important element.
func ExtractHTML(r io.Reader, contentType string) (string, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	root, err := html.Parse(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	// invisible text would never reach a reader
	doc.Find("script, style, noscript, template, svg").Remove()

	var lines []string

	if desc, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
		if desc = collapse(desc); desc != "" {
			lines = append(lines, "META_DESCRIPTION: "+desc)
		}
	}

	if title := collapse(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, "TITLE: "+title)
	}

	content := mainContent(doc)
	content.Find(importantSelector).Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if text == "" {
			return
		}
		lines = append(lines, strings.ToUpper(goquery.NodeName(s))+": "+text)
	})

	return strings.Join(lines, "\n"), nil
}

func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range mainContentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel.First()
		}
	}
	return doc.Find("body").First()
}

// ExtractFeed turns an RSS, Atom or JSON feed into the same labelled line format
func ExtractFeed(r io.Reader) (string, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse feed: %w", err)
	}

	var lines []string
	if desc := collapse(feed.Description); desc != "" {
		lines = append(lines, "META_DESCRIPTION: "+desc)
	}
	if title := collapse(feed.Title); title != "" {
		lines = append(lines, "TITLE: "+title)
	}

	for _, item := range feed.Items {
		if title := collapse(item.Title); title != "" {
			lines = append(lines, "H2: "+title)
		}
		text := item.Description
		if text == "" {
			text = item.Content
		}
		if text = collapse(stripTags(text)); text != "" {
			lines = append(lines, "P: "+text)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// IsFeed guesses from the content type and the first bytes whether body is a feed
func IsFeed(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "feed+json") {
		return true
	}
	if strings.Contains(ct, "html") {
		return false
	}

	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<feed")) || bytes.Contains(head, []byte("<rdf:rdf"))
}

// stripTags drops markup from feed descriptions, which are often HTML fragments
func stripTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
