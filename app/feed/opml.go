package feed

import (
	"encoding/xml"
	"fmt"
	"time"
)

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title       string `xml:"title"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text    string `xml:"text,attr"`
	Title   string `xml:"title,attr,omitempty"`
	Type    string `xml:"type,attr"`
	XMLURL  string `xml:"xmlUrl,attr"`
	HTMLURL string `xml:"htmlUrl,attr,omitempty"`
}

// GenerateOPML renders an OPML 1.0 subscription list pointing at the aggregated feed.
func GenerateOPML(channel ChannelInfo, now time.Time) (string, error) {
	doc := opmlDocument{
		Version: "1.0",
		Head: opmlHead{
			Title:       channel.Title,
			DateCreated: now.UTC().Format(time.RFC1123Z),
		},
		Body: opmlBody{
			Outlines: []opmlOutline{{
				Text:    channel.Title,
				Title:   channel.Description,
				Type:    "rss",
				XMLURL:  channel.SelfURL,
				HTMLURL: channel.SiteURL,
			}},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal OPML: %w", err)
	}

	return xml.Header + string(out), nil
}
