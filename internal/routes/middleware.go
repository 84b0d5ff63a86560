package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-taskboard/backend/internal/handlers"
	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/services"
)

// RequestIDHeader はリクエストIDのヘッダー名です。
const RequestIDHeader = "X-Request-ID"

// AuthMiddleware はJWTトークンを検証し、ユーザー情報をコンテキストに設定するミドルウェアです。
func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}
		// "Bearer " プレフィックスを削除
		if !strings.HasPrefix(tokenString, "Bearer ") {
			abortUnauthorized(c, "Invalid token format")
			return
		}
		tokenString = tokenString[len("Bearer "):]

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Debug("token rejected", "err", err)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(handlers.ContextOwnerUID, claims.Subject)
		c.Set(handlers.ContextUsername, claims.Username)
		c.Set(handlers.ContextRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole は指定したロールを持たない呼び出し元を 403 で拒否します。
// AuthMiddleware の後に使います。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role == "" {
			c.Next()
			return
		}
		claims := &models.JWTClaims{Roles: c.GetStringSlice(handlers.ContextRoles)}
		if !services.HasRole(claims, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorView{
				Status: http.StatusForbidden,
				Error:  "Insufficient role",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger はリクエストごとに1行のログを出力し、リクエストIDを返します。
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"request_id", requestID,
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorView{
		Status: http.StatusUnauthorized,
		Error:  message,
	})
}
