package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/auth"
	"github.com/matchday/matchday-server/internal/community"
	"github.com/matchday/matchday-server/internal/config"
	"github.com/matchday/matchday-server/internal/core"
)

// NewServer builds the HTTP server: REST API plus the websocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, communities *community.Service, msgs *core.MessageLog, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	communityHandlers := NewCommunityHandlers(communities, logger)
	messageHandlers := NewMessageHandlers(communities, msgs, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/communities", communityHandlers.List)
	authed.POST("/communities", communityHandlers.Create)
	authed.GET("/communities/mine", communityHandlers.Mine)
	authed.POST("/communities/:id/join", communityHandlers.Join)
	authed.POST("/communities/:id/leave", communityHandlers.Leave)
	authed.GET("/communities/:id/messages", messageHandlers.History)

	// Socket connections authenticate in-band, not via the Authorization
	// header, so browsers can connect before presenting a credential.
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.AuthWindow, cfg.MessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
