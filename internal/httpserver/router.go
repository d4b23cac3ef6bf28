package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/geo"
	"bigbite-orderbot/internal/service/orderbot"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type botService interface {
	HandleMessage(ctx context.Context, user domain.User, message string, speak bool) (orderbot.Result, error)
	ClearChat(ctx context.Context, key string) error
	SessionInfo(ctx context.Context, key string) (orderbot.SessionInfo, error)
	Orders(ctx context.Context, user domain.User, limit int) ([]domain.AssistantOrder, error)
	Quote(restaurant, customer *domain.Coordinates, items []geo.LineItem) domain.PricingBreakdown
	Speaking(key string) bool
}

// Auth holds the settings used to verify bearer tokens.
type Auth struct {
	JWTSecret string
	Issuer    string
}

// Deps are the services behind the routes.
type Deps struct {
	Bot         botService
	Auth        Auth
	RateLimit   RateLimit
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *slog.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Bot == nil {
		return nil, errors.New("httpserver: bot service required")
	}
	if deps.Auth.JWTSecret == "" {
		return nil, errors.New("httpserver: jwt secret required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), metricsMiddleware())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{bot: deps.Bot}
	v1 := router.Group("/v1", identityMiddleware(deps.Auth))
	v1.POST("/chat", rateLimitMiddleware(newTurnLimiter(deps.RateLimit)), h.chat)
	v1.GET("/chat/session", h.session)
	v1.DELETE("/chat", h.clearChat)
	v1.GET("/orders", h.orders)
	v1.POST("/pricing/quote", h.quote)
	v1.GET("/voice/status", h.voiceStatus)

	return router, nil
}
