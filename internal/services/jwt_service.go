package services

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/models"
)

// Claims はIDプロバイダーが発行するアクセストークンのクレームです。
type Claims struct {
	PreferredUsername string      `json:"preferred_username,omitempty"`
	RealmAccess       RealmAccess `json:"realm_access"`
	jwt.RegisteredClaims
}

// RealmAccess はレルムロールの一覧です。
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// JWTService はJWTトークンの生成と検証を扱います。
type JWTService struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
}

// NewJWTService は設定から新しいJWTServiceを作成します。
// PublicKeyFile が指定されていれば RS256、そうでなければ JWTSecret による HS256 で検証します。
func NewJWTService(cfg config.AuthConfig) (*JWTService, error) {
	s := &JWTService{issuer: cfg.Issuer}
	if cfg.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		s.publicKey = key
	}
	if cfg.JWTSecret != "" {
		s.secret = []byte(cfg.JWTSecret)
	}
	if s.publicKey == nil && s.secret == nil {
		return nil, errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE must be set")
	}
	return s, nil
}

// GenerateToken はHS256のJWTトークンを生成します。テストとローカル開発用です。
func (s *JWTService) GenerateToken(subject, username string, roles []string, ttl time.Duration) (string, error) {
	if s.secret == nil {
		return "", errors.New("token generation requires JWT_SECRET")
	}
	now := time.Now()
	claims := &Claims{
		PreferredUsername: username,
		RealmAccess:       RealmAccess{Roles: roles},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken はJWTトークンを検証し、クレームを返します。
func (s *JWTService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &models.JWTClaims{
		Subject:  claims.Subject,
		Username: claims.PreferredUsername,
		Roles:    claims.RealmAccess.Roles,
	}, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if s.secret != nil {
			return s.secret, nil
		}
	case *jwt.SigningMethodRSA:
		if s.publicKey != nil {
			return s.publicKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// HasRole はロール一覧に role が含まれるかを大文字小文字を区別せずに判定します。
func HasRole(claims *models.JWTClaims, role string) bool {
	if role == "" {
		return true
	}
	for _, r := range claims.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
