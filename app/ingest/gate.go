package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

type Outcome int

const (
	Accepted Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "duplicate"
}

// Gate writes a candidate only when its link has not been stored before.
type Gate struct {
	items     ItemStore
	inspector PageInspector
	now       func() time.Time
}

func NewGate(items ItemStore, inspector PageInspector) *Gate {
	return &Gate{
		items:     items,
		inspector: inspector,
		now:       time.Now,
	}
}

// IngestIfNew stores candidate unless its link already exists. A uniqueness
// conflict on insert is reported as Duplicate, not as an error.
func (g *Gate) IngestIfNew(ctx context.Context, candidate feed.CandidateItem) (Outcome, error) {
	exists, err := g.items.ExistsByLink(ctx, candidate.Link)
	if err != nil {
		return Duplicate, fmt.Errorf("failed to check item existence: %w", err)
	}
	if exists {
		return Duplicate, nil
	}

	item := database.Item{
		Link:        candidate.Link,
		Title:       candidate.Title,
		Description: candidate.Description,
		PubDate:     candidate.PubDate,
		DateTime:    g.now().UTC().Format(database.TimeLayout),
	}
	item.Image, item.Description = g.enrich(ctx, candidate)

	if _, err := g.items.InsertItem(ctx, item); err != nil {
		if errors.Is(err, database.ErrConflict) {
			slog.Debug("Item inserted concurrently", "link", candidate.Link)
			return Duplicate, nil
		}
		return Duplicate, fmt.Errorf("failed to insert item: %w", err)
	}

	return Accepted, nil
}

// enrich picks the item image and fills an empty description from the article page.
// The embedded feed image wins over anything scraped.
func (g *Gate) enrich(ctx context.Context, candidate feed.CandidateItem) (image, description string) {
	image = feed.NormalizeImageURL(candidate.Image, candidate.Link)
	description = candidate.Description

	if image != "" && description != "" {
		return image, description
	}
	if g.inspector == nil {
		return image, description
	}

	page := g.inspector.Inspect(ctx, candidate.Link)
	return cmp.Or(image, page.ImageURL), cmp.Or(description, page.Excerpt)
}
