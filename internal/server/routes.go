package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	// Protected routes
	protected := e.Group("")
	protected.Use(s.verifier.JwtAuthMiddleware)

	// Generation Gateway Routes
	protected.POST("/ai/chat", s.gateway.ChatHandler, s.limiter.Middleware)
	protected.GET("/ai/daily-message", s.gateway.DailyMessageHandler)

	// User Profile Routes
	protected.GET("/profile", s.users.GetProfileHandler)
	protected.PUT("/profile", s.users.UpsertProfileHandler)

	// Chat History Routes
	protected.GET("/chat/:chat_type/messages", s.users.ListChatMessagesHandler)
	protected.POST("/chat/:chat_type/messages", s.users.CreateChatMessageHandler)
	protected.POST("/chat/:chat_type/messages/sync", s.users.SyncChatMessagesHandler)
	protected.DELETE("/chat/:chat_type/messages", s.users.DeleteChatMessagesHandler)

	// Saved Plan Routes
	protected.GET("/plans", s.users.ListAllPlansHandler)
	protected.GET("/plans/:kind", s.users.ListPlansHandler)
	protected.POST("/plans/:kind", s.users.SavePlanHandler)
	protected.GET("/plans/:kind/:plan_id", s.users.GetPlanHandler)
	protected.DELETE("/plans/:kind/:plan_id", s.users.DeletePlanHandler)

	// Websocket for the user's open clients
	protected.GET("/ws", s.users.SocketHandler)

	return e
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
