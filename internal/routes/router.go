// Package routesはroutingを行います。
package routes

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/handlers"
	"go-taskboard/backend/internal/repositories"
	"go-taskboard/backend/internal/services"
	"go-taskboard/backend/internal/validation"
)

// Dependencies はルーターが使う外部リソースです。
type Dependencies struct {
	Config   *config.Config
	TodoRepo repositories.TodoRepository
	// IdentityProvider はログイン・トークン更新・ログアウトの委譲先です。
	IdentityProvider services.IdentityProvider
	// DB は memory ドライバーの場合 nil です。
	DB     *sql.DB
	Logger *log.Logger
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, fmt.Errorf("registering validators: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = deps.Config.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Location", RequestIDHeader}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// サービス
	todoService := services.NewTodoService(deps.TodoRepo)
	authService := services.NewAuthService(deps.IdentityProvider)
	jwtService, err := services.NewJWTService(deps.Config.Auth)
	if err != nil {
		return nil, fmt.Errorf("creating jwt service: %w", err)
	}

	// ハンドラー
	userHandler := handlers.NewUserHandler(authService)
	todoHandler := handlers.NewTodoHandler(todoService)

	// ルーティング
	r.GET("/api/health", healthHandler(deps.DB))

	users := r.Group("/api/Users")
	{
		users.POST("/login", userHandler.LoginHandler)
		users.POST("/refresh", userHandler.RefreshHandler)
		users.POST("/logout", userHandler.LogoutHandler)
		users.GET("/me", AuthMiddleware(jwtService), userHandler.MeHandler)
	}

	todos := r.Group("/api/Todos")
	todos.Use(AuthMiddleware(jwtService), RequireRole(deps.Config.Auth.RequiredRole))
	{
		todos.POST("", todoHandler.CreateTodoHandler)
		todos.GET("", todoHandler.GetTodosHandler)
		todos.GET("/pending", todoHandler.GetPendingTodosHandler)
		todos.GET("/completed", todoHandler.GetCompletedTodosHandler)
		todos.GET("/:id", todoHandler.GetTodoByIDHandler)
		todos.PUT("/:id", todoHandler.UpdateTodoHandler)
		todos.PATCH("/:id", todoHandler.PatchTodoHandler)
		todos.DELETE("/:id", todoHandler.DeleteTodoHandler)
	}

	return r, nil
}

// healthHandler はストアの疎通を確認します。db が nil (memory ドライバー) の場合は常に正常です。
func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				log.Error("database ping failed", "err", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
