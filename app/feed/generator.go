package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

// ChannelInfo describes the aggregated channel.
type ChannelInfo struct {
	Title       string
	Description string
	SelfURL     string // URL of the feed itself
	SiteURL     string
	Version     string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders items as an RSS 2.0 document with Media RSS image elements.
func (g *Generator) Run(channel ChannelInfo, items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.SelfURL, 4)
	g.writeElement(&buf, "description", channel.Description, 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	lastBuildDate := time.Now().UTC()
	if len(items) > 0 {
		if t, err := time.Parse(database.TimeLayout, items[0].DateTime); err == nil {
			lastBuildDate = t
		}
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", "RSS-Aggregator/"+channel.Version, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "comments", item.Link, 6)

	description := item.Description
	if item.Link != "" {
		description += fmt.Sprintf(`<p><a href="%s">Comments</a></p>`, html.EscapeString(item.Link))
	}
	if description != "" {
		buf.WriteString("      <description><![CDATA[")
		buf.WriteString(escapeCDATA(description))
		buf.WriteString("]]></description>\n")
	}

	g.writeElement(buf, "pubDate", g.pubDate(item), 6)

	if item.Link != "" {
		buf.WriteString("      <guid isPermaLink=\"true\">")
		xml.EscapeText(buf, []byte(item.Link))
		buf.WriteString("</guid>\n")
	}

	if item.Image != "" {
		imageURL := html.EscapeString(item.Image)
		imageType := imageMIMEType(item.Image)
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n", imageURL, imageType))
		buf.WriteString(fmt.Sprintf("      <media:content url=\"%s\" type=\"%s\" medium=\"image\" />\n", imageURL, imageType))
	}

	buf.WriteString("    </item>\n")
}

// pubDate prefers the source date and falls back to the ingestion time.
func (g *Generator) pubDate(item database.Item) string {
	if item.PubDate != "" {
		return item.PubDate
	}
	t, err := time.Parse(database.TimeLayout, item.DateTime)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC1123Z)
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func imageMIMEType(imageURL string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(t, "image/") {
			return t
		}
	}
	return "image/jpeg"
}
