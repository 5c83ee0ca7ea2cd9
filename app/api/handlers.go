package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/feed"
)

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		streams:   deps.Streams,
		items:     deps.Items,
		filters:   deps.Filters,
		users:     deps.Users,
		registrar: deps.Registrar,
		runner:    deps.Runner,
		scheduler: deps.Scheduler,
		resolver:  deps.Resolver,
		cache:     deps.Cache,
		generator: feed.NewGenerator(),
		channel:   deps.Channel,
	}
}

func (h *Handler) channelInfo() feed.ChannelInfo {
	return feed.ChannelInfo{
		Title:       h.channel.Title,
		Description: h.channel.Description,
		SelfURL:     h.channel.PublicURL + "/rss",
		SiteURL:     h.channel.PublicURL,
		Version:     h.channel.Version,
	}
}

// queryInt reads a positive integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func pagination(c *gin.Context, defaultSize int) (page, pageSize int, ok bool) {
	page, ok = queryInt(c, "page", 1)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return 0, 0, false
	}
	pageSize, ok = queryInt(c, "page_size", defaultSize)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size parameter"})
		return 0, 0, false
	}
	return page, pageSize, true
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}
