package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/services"
)

// UserHandler はログイン・トークン更新・ログアウトのハンドラーを管理します。
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// LoginHandler はユーザーログインを処理します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// RefreshHandler はリフレッシュトークンでトークンを再発行します。
func (h *UserHandler) RefreshHandler(c *gin.Context) {
	var req models.UserTokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// LogoutHandler はセッションを終了します。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	var req models.UserLogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler は認証済みの呼び出し元の情報を返します。
func (h *UserHandler) MeHandler(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	username := c.GetString(ContextUsername)
	roles := c.GetStringSlice(ContextRoles)

	c.JSON(http.StatusOK, models.JWTClaims{
		Subject:  owner,
		Username: username,
		Roles:    roles,
	})
}
