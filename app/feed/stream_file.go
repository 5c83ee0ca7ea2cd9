package feed

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// StreamFile lists streams and filter rules to register at startup.
type StreamFile struct {
	Streams []StreamEntry `yaml:"streams"`
	Filters []FilterEntry `yaml:"filters"`
}

type StreamEntry struct {
	Link string `yaml:"link"`
}

type FilterEntry struct {
	Filter      string `yaml:"filter"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// LoadStreamFile reads path. A missing file is not an error and yields nil.
func LoadStreamFile(path string) (*StreamFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream file: %w", err)
	}

	var file StreamFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("invalid stream file %s: %w", path, err)
	}

	return &file, nil
}

func (f *StreamFile) validate() error {
	for i, stream := range f.Streams {
		if err := ValidateStreamLink(stream.Link); err != nil {
			return fmt.Errorf("stream %d: %w", i, err)
		}
	}

	for i, filter := range f.Filters {
		if filter.Filter == "" {
			return fmt.Errorf("filter %d: filter pattern is required", i)
		}
	}

	return nil
}

// ValidateStreamLink accepts absolute http and https URLs only.
func ValidateStreamLink(link string) error {
	if link == "" {
		return fmt.Errorf("link is required")
	}

	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("link must be http or https: %s", link)
	}

	if u.Host == "" {
		return fmt.Errorf("link has no host: %s", link)
	}

	return nil
}
