package services

import (
	"context"

	"go-taskboard/backend/internal/models"
)

// IdentityProvider はIDプロバイダーとのトークン交換です。keycloak.Client が実装します。
type IdentityProvider interface {
	PasswordGrant(ctx context.Context, username, password string) (*models.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthService はログイン・トークン更新・ログアウトを扱います。
// ユーザー情報はIDプロバイダー側にあり、このサービスは何も保存しません。
type AuthService struct {
	idp IdentityProvider
}

// NewAuthService は新しいAuthServiceを作成します。
func NewAuthService(idp IdentityProvider) *AuthService {
	return &AuthService{idp: idp}
}

// Login はユーザー名とパスワードでトークンを取得します。
func (s *AuthService) Login(ctx context.Context, req models.UserLoginRequest) (models.UserTokenView, error) {
	token, err := s.idp.PasswordGrant(ctx, req.Username, req.Password)
	if err != nil {
		return models.UserTokenView{}, err
	}
	return toTokenView(token), nil
}

// RefreshToken はリフレッシュトークンでトークンを再発行します。
func (s *AuthService) RefreshToken(ctx context.Context, req models.UserTokenRefreshRequest) (models.UserTokenView, error) {
	token, err := s.idp.RefreshGrant(ctx, req.RefreshToken)
	if err != nil {
		return models.UserTokenView{}, err
	}
	return toTokenView(token), nil
}

// Logout はセッションを終了します。
func (s *AuthService) Logout(ctx context.Context, req models.UserLogoutRequest) error {
	return s.idp.Logout(ctx, req.RefreshToken)
}

func toTokenView(token *models.TokenResponse) models.UserTokenView {
	return models.UserTokenView{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
}
