package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
	"github.com/lysyi3m/rss-aggregator/app/ingest"
	"github.com/lysyi3m/rss-aggregator/app/tasks"
)

const (
	defaultItemPageSize   = 20
	defaultFilterPageSize = 20
)

func (h *Handler) ListStreams(c *gin.Context) {
	streams, err := h.streams.ListStreams(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_streams", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve RSS streams"})
		return
	}
	c.JSON(http.StatusOK, streams)
}

func (h *Handler) AddStream(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Link == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Link is required"})
		return
	}

	stream, err := h.registrar.Register(c.Request.Context(), req.Link)
	if err != nil {
		var (
			transportErr *feed.TransportError
			parseErr     *feed.ParseError
		)
		switch {
		case errors.Is(err, ingest.ErrInvalidLink):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, database.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "RSS stream already exists"})
		case errors.As(err, &transportErr), errors.As(err, &parseErr):
			slog.Warn("Stream registration failed", "link", req.Link, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read RSS stream", "errorKind": ingest.ErrorKind(err)})
		default:
			slog.Error("Database error", "operation", "create_stream", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add RSS stream"})
		}
		return
	}

	c.JSON(http.StatusCreated, stream)
}

func (h *Handler) DeleteStream(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.streams.DeleteStream(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "RSS stream not found"})
			return
		}
		slog.Error("Database error", "operation", "delete_stream", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RSS stream"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateStreams(c *gin.Context) {
	count, err := h.streams.CountStreams(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_streams", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update RSS feeds"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No RSS streams found"})
		return
	}

	summary, err := h.runner.Run(c.Request.Context())
	if errors.Is(err, tasks.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "An update is already in progress"})
		return
	}
	if err != nil {
		slog.Error("Ingestion run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update RSS feeds", "summary": summary})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "RSS feeds updated successfully", "summary": summary})
}

func (h *Handler) ListItems(c *gin.Context) {
	page, pageSize, ok := pagination(c, defaultItemPageSize)
	if !ok {
		return
	}

	order := database.SortOrder(c.DefaultQuery("pubDateOrder", string(database.SortDesc)))
	if order != database.SortAsc && order != database.SortDesc {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pubDateOrder must be asc or desc"})
		return
	}

	result, err := h.items.ListItems(c.Request.Context(), database.ItemQuery{Page: page, PageSize: pageSize, Order: order})
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve RSS items"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateItems(c *gin.Context) {
	var reqs []itemUpdateRequest
	if err := bindOneOrMany(c, &reqs); err != nil || len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	for _, req := range reqs {
		if req.ID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Item id is required"})
			return
		}
		if req.toUpdate().IsEmpty() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update", "id": req.ID})
			return
		}
	}

	ctx := c.Request.Context()
	updated := 0
	for _, req := range reqs {
		err := h.items.UpdateItem(ctx, req.ID, req.toUpdate())
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "RSS item not found", "id": req.ID, "updated": updated})
			h.invalidateIfUpdated(c, updated)
			return
		}
		if errors.Is(err, database.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Link already used by another item", "id": req.ID, "updated": updated})
			h.invalidateIfUpdated(c, updated)
			return
		}
		if err != nil {
			slog.Error("Database error", "operation", "update_item", "id", req.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update RSS items", "updated": updated})
			h.invalidateIfUpdated(c, updated)
			return
		}
		updated++
	}

	h.invalidateFeed(c)
	c.JSON(http.StatusOK, gin.H{"message": "RSS items updated successfully", "updated": updated})
}

func (h *Handler) invalidateIfUpdated(c *gin.Context, updated int) {
	if updated > 0 {
		h.invalidateFeed(c)
	}
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.items.SoftDeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "RSS item not found"})
			return
		}
		slog.Error("Database error", "operation", "delete_item", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RSS item"})
		return
	}

	h.invalidateFeed(c)
	c.JSON(http.StatusOK, gin.H{"message": "RSS item deleted successfully"})
}

func (h *Handler) RefreshItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if _, err := h.items.GetItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "RSS item not found"})
			return
		}
		slog.Error("Database error", "operation", "get_item", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh RSS item"})
		return
	}

	task := tasks.NewRefreshImageTask(id, h.items, h.resolver, h.cache)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue RefreshImageTask", "id", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "RSS item refresh scheduled", "task_id": task.GetID()})
}

func (h *Handler) ListFilters(c *gin.Context) {
	page, pageSize, ok := pagination(c, defaultFilterPageSize)
	if !ok {
		return
	}

	result, err := h.filters.ListFiltersPage(c.Request.Context(), page, pageSize)
	if err != nil {
		slog.Error("Database error", "operation", "list_filters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve filter items"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpsertFilters(c *gin.Context) {
	var reqs []filterRequest
	if err := bindOneOrMany(c, &reqs); err != nil || len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	for _, req := range reqs {
		if req.Filter == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Filter is required"})
			return
		}
	}

	ctx := c.Request.Context()
	saved := make([]database.FilterRule, 0, len(reqs))
	for _, req := range reqs {
		rule, err := h.filters.UpsertFilter(ctx, database.FilterRuleInput{
			ID:          req.ID,
			Pattern:     req.Filter,
			Title:       req.Title,
			Description: req.Description,
		})
		switch {
		case errors.Is(err, database.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Filter already exists", "filter": req.Filter})
			return
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Filter item not found", "id": req.ID})
			return
		case err != nil:
			slog.Error("Database error", "operation", "upsert_filter", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update or add filter item(s)"})
			return
		}
		saved = append(saved, *rule)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Filter item(s) updated or added successfully", "items": saved})
}

func (h *Handler) DeleteFilter(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.filters.DeleteFilter(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Filter item not found"})
			return
		}
		slog.Error("Database error", "operation", "delete_filter", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete filter item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Filter item deleted successfully"})
}

// bindOneOrMany decodes a JSON body holding either one object or an array of them.
func bindOneOrMany[T any](c *gin.Context, out *[]T) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return json.Unmarshal(body, out)
	}

	var one T
	if err := json.Unmarshal(body, &one); err != nil {
		return err
	}
	*out = []T{one}
	return nil
}
