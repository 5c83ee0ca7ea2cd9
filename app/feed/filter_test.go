package feed

import (
	"errors"
	"testing"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

func rules(patterns ...string) []database.FilterRule {
	out := make([]database.FilterRule, 0, len(patterns))
	for i, p := range patterns {
		out = append(out, database.FilterRule{ID: int64(i + 1), Pattern: p})
	}
	return out
}

func TestFilterEngine_Substring(t *testing.T) {
	engine, errs := NewFilterEngine(rules("/sponsored/", "utm_source=ads"))
	if len(errs) != 0 {
		t.Fatalf("Expected no compile errors, got: %v", errs)
	}

	tests := []struct {
		link string
		want bool
	}{
		{"https://example.com/sponsored/post", true},
		{"https://example.com/a?utm_source=ads", true},
		{"https://example.com/Sponsored/post", false},
		{"https://example.com/news/post", false},
	}

	for _, tt := range tests {
		if got := engine.IsRejected(tt.link); got != tt.want {
			t.Errorf("Expected IsRejected(%q) = %v, got %v", tt.link, tt.want, got)
		}
	}
}

func TestFilterEngine_OrderIndependent(t *testing.T) {
	link := "https://example.com/sponsored/post"

	forward, _ := NewFilterEngine(rules("/sponsored/", "nomatch"))
	backward, _ := NewFilterEngine(rules("nomatch", "/sponsored/"))

	if !forward.IsRejected(link) || !backward.IsRejected(link) {
		t.Error("Expected rejection regardless of rule order")
	}

	pattern, ok := backward.Match(link)
	if !ok || pattern != "/sponsored/" {
		t.Errorf("Expected match on '/sponsored/', got %q (%v)", pattern, ok)
	}
}

func TestFilterEngine_Regex(t *testing.T) {
	engine, errs := NewFilterEngine(rules(`regex:^https://example\.com/`))
	if len(errs) != 0 {
		t.Fatalf("Expected no compile errors, got: %v", errs)
	}

	if !engine.IsRejected("https://example.com/story") {
		t.Error("Expected link matching the regex to be rejected")
	}
	if engine.IsRejected("https://other.com/https://example.com/") {
		t.Error("Expected anchored regex not to match elsewhere")
	}
}

func TestFilterEngine_InvalidRegexFailsOpen(t *testing.T) {
	engine, errs := NewFilterEngine(rules("regex:[invalid(", "", "regex:"))

	if len(errs) != 1 {
		t.Fatalf("Expected 1 compile error, got %d", len(errs))
	}

	var compileErr *FilterCompileError
	if !errors.As(errs[0], &compileErr) {
		t.Fatalf("Expected FilterCompileError, got: %T", errs[0])
	}
	if compileErr.Pattern != "regex:[invalid(" {
		t.Errorf("Expected pattern 'regex:[invalid(', got '%s'", compileErr.Pattern)
	}

	for _, link := range []string{"https://example.com/[invalid(", "https://example.com/", ""} {
		if engine.IsRejected(link) {
			t.Errorf("Expected inert rules never to reject %q", link)
		}
	}

	if engine.Len() != 3 {
		t.Errorf("Expected inert rules to stay in the engine, got %d rules", engine.Len())
	}
}

func TestIsRejected(t *testing.T) {
	set := rules("regex:[broken", "/ads/")
	if !IsRejected("https://example.com/ads/1", set) {
		t.Error("Expected substring rule to reject despite an inert regex before it")
	}
	if IsRejected("https://example.com/news/1", set) {
		t.Error("Expected unmatched link to be accepted")
	}
	if IsRejected("https://example.com/ads/1", nil) {
		t.Error("Expected empty rule set to accept everything")
	}
}

func TestFilterEngine_EmptyPatternsMatchNothing(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"empty substring", ""},
		{"empty regex", "regex:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, errs := NewFilterEngine(rules(tt.pattern))
			if len(errs) != 0 {
				t.Errorf("Expected no compile errors, got %v", errs)
			}
			if pattern, ok := engine.Match("https://example.com/news/1"); ok {
				t.Errorf("Expected no rejection, got match on %q", pattern)
			}
		})
	}
}
