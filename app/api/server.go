package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.GetRoot)
	r.GET("/health", h.GetHealth)
	r.GET("/rss", h.GetRSS)
	r.GET("/opml", h.GetOPML)
	r.POST("/login", h.Login)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})

	authed := r.Group("/")
	authed.Use(authMiddleware(h.users))

	user := authed.Group("/", requireLevel(database.LevelUser))
	{
		user.POST("/logout", h.Logout)
		user.POST("/update_user", h.UpdateUser)
	}

	admin := authed.Group("/", requireLevel(database.LevelAdmin))
	{
		admin.GET("/rss_streams", h.ListStreams)
		admin.POST("/rss_streams", h.AddStream)
		admin.DELETE("/rss_streams/:id", h.DeleteStream)
		admin.POST("/rss_update_streams", h.UpdateStreams)

		admin.GET("/rss_items", h.ListItems)
		admin.POST("/rss_items", h.UpdateItems)
		admin.DELETE("/rss_items/:id", h.DeleteItem)
		admin.POST("/rss_items/:id/refresh", h.RefreshItem)

		admin.GET("/filter_items", h.ListFilters)
		admin.POST("/filter_items", h.UpsertFilters)
		admin.DELETE("/filter_items/:id", h.DeleteFilter)

		admin.POST("/create_user", h.CreateUser)
		admin.DELETE("/delete_user/:username", h.DeleteUser)
		admin.GET("/users", h.ListUsers)
		admin.POST("/encrypt", h.Encrypt)

		admin.GET("/metrics/total-feeds", h.GetTotalFeeds)
		admin.GET("/metrics/item-count", h.GetItemCount)
	}
}
