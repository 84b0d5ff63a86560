// Package testutil はハンドラーとリポジトリのテスト用ヘルパーです。
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/database"
	"go-taskboard/backend/internal/keycloak"
	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/repositories"
	"go-taskboard/backend/internal/routes"
	"go-taskboard/backend/internal/services"
)

// TestJWTSecret はテスト用のHS256シークレットです。
const TestJWTSecret = "taskboard-test-secret"

// TestConfig はメモリストアとテスト用シークレットを使う設定を返します。
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverMemory
	cfg.Auth.JWTSecret = TestJWTSecret
	return cfg
}

// FakeIdentityProvider は services.IdentityProvider のテスト用実装です。
// Err が設定されていればすべての呼び出しがそのエラーを返します。
type FakeIdentityProvider struct {
	mu        sync.Mutex
	Err       error
	Username  string
	Password  string
	LoggedOut []string
}

func (f *FakeIdentityProvider) PasswordGrant(_ context.Context, username, password string) (*models.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if username != f.Username || password != f.Password {
		return nil, keycloak.ErrUpstream
	}
	return &models.TokenResponse{AccessToken: "access-" + username, RefreshToken: "refresh-" + username}, nil
}

func (f *FakeIdentityProvider) RefreshGrant(_ context.Context, refreshToken string) (*models.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.TokenResponse{AccessToken: "access-refreshed", RefreshToken: refreshToken + "-next"}, nil
}

func (f *FakeIdentityProvider) Logout(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.LoggedOut = append(f.LoggedOut, refreshToken)
	return nil
}

// TestEnv はテスト用に組み立てたルーターとその依存です。
type TestEnv struct {
	Router *gin.Engine
	Repo   *repositories.InMemoryTodoRepository
	IdP    *FakeIdentityProvider
}

// SetupTestRouter はメモリストアの上にすべてのルートを登録したルーターを作成します。
func SetupTestRouter(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repositories.NewInMemoryTodoRepository()
	idp := &FakeIdentityProvider{Username: "alice", Password: "wonderland"}
	router, err := routes.SetupRouter(routes.Dependencies{
		Config:           TestConfig(),
		TodoRepo:         repo,
		IdentityProvider: idp,
		Logger:           log.New(io.Discard),
	})
	require.NoError(t, err)

	return &TestEnv{Router: router, Repo: repo, IdP: idp}
}

// TokenFor は subject を所有者とするアクセストークンを発行します。roles を省略すると "user" です。
func TokenFor(t *testing.T, subject string, roles ...string) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	jwtService, err := services.NewJWTService(TestConfig().Auth)
	require.NoError(t, err)
	token, err := jwtService.GenerateToken(subject, subject+"-name", roles, time.Hour)
	require.NoError(t, err)
	return token
}

// DoJSON は body をJSONとして送信し、レスポンスを返します。token が空なら認証ヘッダーを付けません。
func DoJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// FutureDate は今日から days 日後の日付です。
func FutureDate(days int) models.Date {
	return models.DateOf(time.Now()).AddDays(days)
}

// CreateTestTodo はAPI経由で未完了のTodoを作成します。
func CreateTestTodo(t *testing.T, router http.Handler, token, title string) models.TodoView {
	t.Helper()
	payload := map[string]interface{}{
		"Title":       title,
		"Description": "description of " + title,
		"IsCompleted": false,
		"DueDate":     FutureDate(7).String(),
	}
	w := DoJSON(t, router, http.MethodPost, "/api/Todos", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, "Todo作成に失敗しました: %s", w.Body.String())

	var created models.TodoView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

// SetupTestDB はテスト用のMySQLに接続し、todos テーブルを空にします。
// TEST_DB_* が設定されていなければテストをスキップします。
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg := config.DatabaseConfig{
		User:         os.Getenv("TEST_DB_USER"),
		Pass:         os.Getenv("TEST_DB_PASS"),
		Host:         os.Getenv("TEST_DB_HOST"),
		Port:         os.Getenv("TEST_DB_PORT"),
		Name:         os.Getenv("TEST_DB_NAME"),
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}
	if cfg.User == "" || cfg.Host == "" || cfg.Name == "" {
		t.Skip("TEST_DB_USER, TEST_DB_HOST and TEST_DB_NAME are not set")
	}
	if cfg.Port == "" {
		cfg.Port = "3306"
	}

	ctx := context.Background()
	db, err := database.InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.EnsureSchema(ctx, db))
	// テストのたびにクリーンな状態にする
	_, err = db.ExecContext(ctx, "TRUNCATE TABLE todos")
	require.NoError(t, err)
	return db
}
