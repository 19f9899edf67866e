package handler

import (
	"time"

	"consignment-ledger/internal/adapter/http/middleware"
	redisStore "consignment-ledger/internal/adapter/storage/redis"
	"consignment-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	SellerSvc      ports.SellerService
	SettlementSvc  ports.SettlementService
	ExportSvc      ports.ExportService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	LoginLimit     int64
	LoginWindow    time.Duration
	MaxBodyBytes   int64
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode; empty = release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode == "" {
		deps.Mode = gin.ReleaseMode
	}
	gin.SetMode(deps.Mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB request body limit
	}
	r.Use(middleware.MaxBodySize(maxBody))

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/teapot", Teapot)

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Login is the only rate-limited route.
	var loginLimiter gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.RateLimitStore != nil {
		loginLimiter = middleware.LoginRateLimiter(deps.RateLimitStore, deps.LoginLimit, deps.LoginWindow, deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc)
	r.POST("/login", loginLimiter, authHandler.Login)

	// --- Bearer-authenticated routes (panel API) ---
	sellerHandler := NewSellerHandler(deps.SellerSvc)
	settlementHandler := NewSettlementHandler(deps.SettlementSvc, deps.ExportSvc)

	authed := r.Group("/", middleware.BearerAuth(deps.TokenSvc))
	{
		authed.GET("/sellers", sellerHandler.List)
		authed.GET("/sellers/:id", sellerHandler.Get)
		authed.POST("/seller", sellerHandler.Create)
		authed.PATCH("/seller/:id", sellerHandler.Patch)
		authed.DELETE("/seller/:id", sellerHandler.Delete)
		authed.POST("/sell", settlementHandler.Sell)
		authed.GET("/exportcsv", settlementHandler.ExportCSV)
	}

	return r
}
