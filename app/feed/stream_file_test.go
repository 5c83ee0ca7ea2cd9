package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeStreamFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streams.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write stream file: %v", err)
	}
	return path
}

func TestLoadStreamFile(t *testing.T) {
	path := writeStreamFile(t, `
streams:
  - link: https://a.example.com/rss
  - link: http://b.example.com/feed.xml
filters:
  - filter: /sponsored/
    title: Sponsored
  - filter: 'regex:^https://ads\.'
`)

	file, err := LoadStreamFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := &StreamFile{
		Streams: []StreamEntry{
			{Link: "https://a.example.com/rss"},
			{Link: "http://b.example.com/feed.xml"},
		},
		Filters: []FilterEntry{
			{Filter: "/sponsored/", Title: "Sponsored"},
			{Filter: `regex:^https://ads\.`},
		},
	}
	if diff := cmp.Diff(want, file); diff != "" {
		t.Errorf("Unexpected stream file (-want +got):\n%s", diff)
	}
}

func TestLoadStreamFile_Missing(t *testing.T) {
	file, err := LoadStreamFile(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if file != nil {
		t.Errorf("Expected nil file, got %+v", file)
	}
}

func TestLoadStreamFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "streams: [",
		"bad scheme":   "streams:\n  - link: ftp://example.com/rss\n",
		"missing link": "streams:\n  - link: ''\n",
		"empty filter": "filters:\n  - title: nothing\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadStreamFile(writeStreamFile(t, content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestValidateStreamLink(t *testing.T) {
	if err := ValidateStreamLink("https://example.com/rss"); err != nil {
		t.Errorf("Expected valid link, got: %v", err)
	}
	for _, link := range []string{"", "example.com/rss", "https://", "mailto:a@b.c"} {
		if err := ValidateStreamLink(link); err == nil {
			t.Errorf("Expected %q to be rejected", link)
		}
	}
}
