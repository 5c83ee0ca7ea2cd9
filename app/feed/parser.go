package feed

import (
	"bytes"
	"cmp"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/text/unicode/norm"
)

type Parser struct {
	sanitizer *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Run parses a feed document into candidate items in document order.
func (p *Parser) Run(data []byte) ([]CandidateItem, error) {
	parsed, err := p.parse(data)
	if err != nil {
		return nil, err
	}

	items := make([]CandidateItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

// Channel parses only the feed-level metadata.
func (p *Parser) Channel(data []byte) (*Channel, error) {
	parsed, err := p.parse(data)
	if err != nil {
		return nil, err
	}

	return &Channel{
		Title:       p.cleanText(parsed.Title),
		Link:        strings.TrimSpace(parsed.Link),
		Description: p.cleanHTML(parsed.Description),
	}, nil
}

func (p *Parser) parse(data []byte) (*gofeed.Feed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}

	// gofeed.Parser keeps per-parse state, so each document gets its own.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return parsed, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) CandidateItem {
	return CandidateItem{
		Title:       p.cleanText(item.Title),
		Link:        strings.TrimSpace(cmp.Or(item.Link, firstLink(item.Links))),
		Description: p.cleanHTML(item.Description),
		PubDate:     strings.TrimSpace(cmp.Or(item.Published, item.Updated)),
		Image:       strings.TrimSpace(p.extractImage(item)),
	}
}

func (p *Parser) extractImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	media := item.Extensions["media"]
	for _, name := range []string{"content", "thumbnail"} {
		for _, e := range media[name] {
			if url := mediaImageURL(e); url != "" {
				return url
			}
		}
	}

	return ""
}

func mediaImageURL(e ext.Extension) string {
	url := e.Attrs["url"]
	if url == "" {
		return ""
	}
	if e.Name == "thumbnail" {
		return url
	}
	if e.Attrs["medium"] == "image" || strings.HasPrefix(e.Attrs["type"], "image/") {
		return url
	}
	return ""
}

func (p *Parser) cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (p *Parser) cleanHTML(s string) string {
	return strings.TrimSpace(p.sanitizer.Sanitize(s))
}

func firstLink(links []string) string {
	for _, link := range links {
		if link != "" {
			return link
		}
	}
	return ""
}
