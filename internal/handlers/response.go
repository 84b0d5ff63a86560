package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"go-taskboard/backend/internal/keycloak"
	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/repositories"
	"go-taskboard/backend/internal/services"
)

// コンテキストキー (routes.AuthMiddleware が設定します)
const (
	ContextOwnerUID = "owner_uid"
	ContextUsername = "username"
	ContextRoles    = "roles"
)

const (
	msgTodoNotFound   = "Could not find Todo"
	msgCompletedTodo  = "Cannot modify completed Todo"
	msgInvalidPayload = "Invalid request payload"
)

// respondError はエラーの種類に応じたステータスコードでエラーレスポンスを返します。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrTodoNotFound):
		abortWithError(c, http.StatusNotFound, msgTodoNotFound, "")
	case errors.Is(err, services.ErrCompletedTodo):
		abortWithError(c, http.StatusForbidden, msgCompletedTodo, "")
	case errors.Is(err, keycloak.ErrUpstream):
		log.Warn("identity provider failure", "path", c.FullPath(), "err", err)
		abortWithError(c, http.StatusBadGateway, "Authentication request failed", "")
	default:
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error", "")
	}
}

// respondBindError はリクエストのバインド・バリデーションエラーを返します。
func respondBindError(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, msgInvalidPayload, err.Error())
}

func abortWithError(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, models.ErrorView{Status: status, Error: message, Details: details})
}

// ownerFromContext は認証ミドルウェアが設定した所有者IDを取り出します。
func ownerFromContext(c *gin.Context) (string, bool) {
	ownerVal, exists := c.Get(ContextOwnerUID)
	if !exists {
		abortWithError(c, http.StatusUnauthorized, "Owner not found in context", "")
		return "", false
	}
	owner, ok := ownerVal.(string)
	if !ok || owner == "" {
		abortWithError(c, http.StatusInternalServerError, "Invalid owner type in context", "")
		return "", false
	}
	return owner, true
}
