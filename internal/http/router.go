package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/auth"
	"github.com/naydelinzavala7/back-login-mongo/internal/config"
	"github.com/naydelinzavala7/back-login-mongo/internal/http/handlers"
	"github.com/naydelinzavala7/back-login-mongo/internal/http/middlewares"
	"github.com/naydelinzavala7/back-login-mongo/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Accounts *account.Service
	Tokens   *auth.Manager
	// Prom is optional; without it no /metrics route is mounted.
	Prom         *observability.Prom
	ShuttingDown func() bool
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(otelgin.Middleware("accounts-api"))
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Accounts.Ping, deps.ShuttingDown)
	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	var results handlers.ResultObserver
	if deps.Prom != nil {
		results = deps.Prom
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	accountsHandler := handlers.NewAccountsHandler(deps.Accounts, deps.Tokens, results, deps.Log)
	authMw := middlewares.NewAuthMiddleware(deps.Tokens)
	authLimiter := middlewares.NewRateLimiter(deps.Config.RateLimitAuth, time.Minute)
	userLimiter := middlewares.NewRateLimiter(deps.Config.RateLimitUser, time.Minute)

	api := r.Group("/api/user")
	{
		api.POST("/register", authLimiter.Middleware(middlewares.KeyByIP), accountsHandler.Register)
		api.POST("/login", authLimiter.Middleware(middlewares.KeyByIP), accountsHandler.Login)
		api.GET("/getallusers", accountsHandler.List)
		api.POST("/deleteuser", accountsHandler.Delete)
		api.POST("/updateuser", accountsHandler.Update)

		// per-user limit runs after RequireAuth so the key is the token's user id
		me := api.Group("", authMw.RequireAuth(), userLimiter.Middleware(middlewares.KeyByUserOrIP))
		me.GET("/me", accountsHandler.Me)
		me.POST("/logout", accountsHandler.Logout)
	}

	return r
}
