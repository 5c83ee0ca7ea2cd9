package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

// RefreshImageTask re-resolves the image of a single stored item.
type RefreshImageTask struct {
	Task
	ItemID      int64
	items       ItemUpdater
	resolver    ImageResolver
	invalidator FeedInvalidator
}

func NewRefreshImageTask(itemID int64, items ItemUpdater, resolver ImageResolver, invalidator FeedInvalidator) *RefreshImageTask {
	return &RefreshImageTask{
		Task:        NewTask(TaskTypeRefreshImage, strconv.FormatInt(itemID, 10)),
		ItemID:      itemID,
		items:       items,
		resolver:    resolver,
		invalidator: invalidator,
	}
}

func (t *RefreshImageTask) Execute(ctx context.Context) error {
	item, err := t.items.GetItem(ctx, t.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		slog.Warn("Item to refresh no longer exists", "item_id", t.ItemID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}

	image := t.resolver.Resolve(ctx, item.Link)
	if image == "" || image == item.Image {
		slog.Debug("Item image unchanged", "item_id", t.ItemID, "link", item.Link)
		return nil
	}

	if err := t.items.UpdateItem(ctx, t.ItemID, database.ItemUpdate{Image: &image}); err != nil {
		return fmt.Errorf("failed to update item image: %w", err)
	}

	slog.Info("Item image refreshed", "item_id", t.ItemID, "image", image)

	if t.invalidator != nil {
		if err := t.invalidator.InvalidateFeed(ctx); err != nil {
			slog.Warn("Failed to invalidate feed cache", "error", err)
		}
	}

	return nil
}
