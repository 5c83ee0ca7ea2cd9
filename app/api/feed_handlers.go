package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/cache"
	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

const publicFeedPageSize = 100

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     h.channel.Version,
		"description": "RSS aggregator: registered streams merged into one filtered feed",
		"status":      "ok",
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	health := map[string]any{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.streams.CountStreams(ctx); err == nil {
		health["streams"] = count
	}
	if count, err := h.items.CountItems(ctx); err == nil {
		health["items"] = count
	}
	if h.scheduler != nil {
		health["scheduler"] = h.scheduler.Stats()
	}
	if h.runner != nil {
		if summary, ok := h.runner.LastSummary(); ok {
			health["last_run"] = summary
		}
	}
	if h.cache != nil {
		health["cache"] = h.cache.Health(ctx)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetRSS(c *gin.Context) {
	page, pageSize, ok := pagination(c, publicFeedPageSize)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key := cache.FeedKey(c.Request.URL.RequestURI())

	if h.cache != nil {
		content, hit, err := h.cache.GetFeed(ctx, key)
		if err != nil {
			slog.Warn("Feed cache read failed", "error", err)
		}
		if hit {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(content))
			return
		}
	}

	result, err := h.items.ListItems(ctx, database.ItemQuery{Page: page, PageSize: pageSize, Order: database.SortDesc})
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate RSS feed"})
		return
	}

	rss, err := h.generator.Run(h.channelInfo(), result.Items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate RSS feed"})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetFeed(ctx, key, rss, h.channel.CacheTTL); err != nil {
			slog.Warn("Feed cache write failed", "error", err)
		}
		c.Header("X-Cache", "MISS")
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(result.Items)))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetOPML(c *gin.Context) {
	opml, err := feed.GenerateOPML(h.channelInfo(), time.Now())
	if err != nil {
		slog.Error("OPML generation error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OPML feed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="opml.xml"`)
	c.Data(http.StatusOK, "text/x-opml; charset=utf-8", []byte(opml))
}

func (h *Handler) GetTotalFeeds(c *gin.Context) {
	count, err := h.streams.CountStreams(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_streams", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve total feeds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": count})
}

func (h *Handler) GetItemCount(c *gin.Context) {
	count, err := h.items.CountItems(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve RSS items count"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) invalidateFeed(c *gin.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateFeed(c.Request.Context()); err != nil {
		slog.Warn("Failed to invalidate feed cache", "error", err)
	}
}
