// Package feed fetches RSS and Atom documents and normalizes their entries
// into domain.FeedItem values.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

// DefaultMaxItems bounds how many entries of a feed are validated per run.
const DefaultMaxItems = 10

// httpPrefix marks GUIDs that can stand in for a missing link.
const httpPrefix = "http"

// Parse decodes an RSS or Atom document and returns up to maxItems entries in
// document order. Entries without a title are dropped before the cap applies.
// A document that is not a feed at all is an error.
func Parse(ctx context.Context, body []byte, maxItems int) ([]domain.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	feedCategory := ""
	if len(parsed.Categories) > 0 {
		feedCategory = cleanText(parsed.Categories[0])
	}

	items := make([]domain.FeedItem, 0, min(len(parsed.Items), maxItems))
	for _, entry := range parsed.Items {
		if len(items) == maxItems {
			break
		}

		title := cleanText(entry.Title)
		if title == "" {
			continue
		}

		item := domain.FeedItem{
			Title:       title,
			Description: cleanText(firstNonEmpty(entry.Description, entry.Content)),
			Link:        extractLink(entry),
			PubDate:     publishedAt(entry),
			Category:    feedCategory,
		}
		if len(entry.Categories) > 0 {
			if c := cleanText(entry.Categories[0]); c != "" {
				item.Category = c
			}
		}

		items = append(items, item)
	}

	return items, nil
}

func extractLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(entry.GUID); strings.HasPrefix(guid, httpPrefix) {
		return guid
	}
	for _, l := range entry.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func publishedAt(entry *gofeed.Item) *time.Time {
	switch {
	case entry.PublishedParsed != nil:
		t := entry.PublishedParsed.UTC()
		return &t
	case entry.UpdatedParsed != nil:
		t := entry.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}

// blockElements separate their text from the surrounding text.
var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true,
	"tr": true, "ul": true,
}

// cleanText strips markup, decodes entities and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			var b strings.Builder
			writeText(&b, doc.Selection)
			s = b.String()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			b.WriteString(child.Text())
		case name == "script" || name == "style":
		case blockElements[name]:
			b.WriteByte(' ')
			writeText(b, child)
			b.WriteByte(' ')
		default:
			writeText(b, child)
		}
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
