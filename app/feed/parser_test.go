package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Item &lt;b&gt;one&lt;/b&gt;&lt;script&gt;alert(1)&lt;/script&gt;</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://example.com/item1.png" length="10" type="image/png"/>
    </item>
    <item>
      <title>  Test Item 2  </title>
      <link>https://example.com/item2</link>
      <media:content url="https://cdn.example.com/item2.jpg" medium="image"/>
    </item>
    <item>
      <link>https://example.com/item3</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []CandidateItem{
		{
			Title:       "Test Item 1",
			Link:        "https://example.com/item1",
			Description: "Item <b>one</b>",
			PubDate:     "Mon, 03 Jul 2023 10:00:00 GMT",
			Image:       "https://example.com/item1.png",
		},
		{
			Title: "Test Item 2",
			Link:  "https://example.com/item2",
			Image: "https://cdn.example.com/item2.jpg",
		},
		{
			Link: "https://example.com/item3",
		},
	}

	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("Unexpected candidates (-want +got):\n%s", diff)
	}
}

func TestParseChannel(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Daily News</title>
    <link>https://news.example.com</link>
    <description>All the news</description>
  </channel>
</rss>`

	channel, err := NewParser().Channel([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Daily News" {
		t.Errorf("Expected title 'Daily News', got: %s", channel.Title)
	}
	if channel.Description != "All the news" {
		t.Errorf("Expected description 'All the news', got: %s", channel.Description)
	}
	if channel.Link != "https://news.example.com" {
		t.Errorf("Expected link 'https://news.example.com', got: %s", channel.Link)
	}
}

func TestParseEmptyChannel(t *testing.T) {
	items, err := NewParser().Run([]byte(`<rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected 0 items, got: %d", len(items))
	}
}

func TestParseMalformedDocument(t *testing.T) {
	tests := []string{
		"",
		"not a feed at all",
		"<html><body>Oops</body></html>",
	}

	for _, data := range tests {
		_, err := NewParser().Run([]byte(data))
		if err == nil {
			t.Errorf("Expected error for %q", data)
			continue
		}

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Expected ParseError for %q, got: %T", data, err)
		}
		if !strings.Contains(err.Error(), "failed to parse feed") {
			t.Errorf("Expected wrapped message, got: %v", err)
		}
	}
}
