package feed

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

const regexPrefix = "regex:"

type compiledRule struct {
	pattern string
	re      *regexp.Regexp
	inert   bool
}

// FilterEngine rejects links matching any of a fixed rule set. Build one per run.
type FilterEngine struct {
	rules []compiledRule
}

// NewFilterEngine compiles rules once. Rules that fail to compile are returned as
// *FilterCompileError and stay in the engine as inert rules.
func NewFilterEngine(rules []database.FilterRule) (*FilterEngine, []error) {
	engine := &FilterEngine{rules: make([]compiledRule, 0, len(rules))}
	var errs []error

	for _, rule := range rules {
		compiled := compiledRule{pattern: rule.Pattern}

		switch {
		// An empty pattern would match every link, so it is kept inert.
		case rule.Pattern == "" || rule.Pattern == regexPrefix:
			compiled.inert = true
		case strings.HasPrefix(rule.Pattern, regexPrefix):
			re, err := regexp.Compile(strings.TrimPrefix(rule.Pattern, regexPrefix))
			if err != nil {
				compiled.inert = true
				errs = append(errs, &FilterCompileError{Pattern: rule.Pattern, Err: err})
				break
			}
			compiled.re = re
		}

		engine.rules = append(engine.rules, compiled)
	}

	return engine, errs
}

// Match returns the first rule pattern that rejects link.
func (e *FilterEngine) Match(link string) (string, bool) {
	for _, rule := range e.rules {
		if rule.inert {
			continue
		}
		if rule.re != nil {
			if rule.re.MatchString(link) {
				return rule.pattern, true
			}
			continue
		}
		if strings.Contains(link, rule.pattern) {
			return rule.pattern, true
		}
	}
	return "", false
}

func (e *FilterEngine) IsRejected(link string) bool {
	_, rejected := e.Match(link)
	return rejected
}

func (e *FilterEngine) Len() int {
	return len(e.rules)
}

// IsRejected compiles rules and evaluates link against them in one step.
func IsRejected(link string, rules []database.FilterRule) bool {
	engine, errs := NewFilterEngine(rules)
	for _, err := range errs {
		slog.Debug("Filter rule is inert", "error", err)
	}
	return engine.IsRejected(link)
}
