package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ebs-uchimura/lineorder/internal/conversation"
	"github.com/ebs-uchimura/lineorder/internal/middleware"
)

// NewRouter wires the webhook endpoint. An empty channelSecret disables
// signature verification (local runs and tests).
func NewRouter(handler *conversation.Handler, channelSecret string) *gin.Engine {
	r := gin.Default()

	// The card site polls /health during payment hand-off.
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"https://card.suijinclub.com"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "connected.")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	webhook := r.Group("/")
	if channelSecret != "" {
		webhook.Use(middleware.LineSignature(channelSecret))
	}
	webhook.POST("/webhook", handler.Webhook())

	return r
}
