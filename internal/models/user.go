package models

// ユーザー管理はIDプロバイダー側で行うため、ここではトークン交換用の型だけを持ちます。

// UserLoginRequest はログインリクエストです。
type UserLoginRequest struct {
	Username string `json:"UserName" binding:"required,min=4,max=50"`
	Password string `json:"PassWord" binding:"required,min=4,max=50"`
}

// UserTokenRefreshRequest はリフレッシュトークンによる再発行リクエストです。
type UserTokenRefreshRequest struct {
	RefreshToken string `json:"RefreshToken" binding:"required,min=10"`
}

// UserLogoutRequest はログアウトリクエストです。
type UserLogoutRequest struct {
	RefreshToken string `json:"RefreshToken" binding:"required,min=10"`
}

// UserTokenView はクライアントへ返すトークンの組です。
type UserTokenView struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
}

// TokenResponse はIDプロバイダーのトークンエンドポイントのレスポンスです。
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// JWTClaims は検証済みアクセストークンから取り出した呼び出し元の情報です。
type JWTClaims struct {
	Subject  string   `json:"subject"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}
