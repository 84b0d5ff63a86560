package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/handlers"
	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/routes"
	"go-taskboard/backend/internal/services"
	"go-taskboard/backend/testutil"
)

// newProtectedRouter は AuthMiddleware と RequireRole の後ろに識別情報を返すだけのルートを持つルーターです。
func newProtectedRouter(t *testing.T) (*gin.Engine, *services.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtService, err := services.NewJWTService(config.AuthConfig{JWTSecret: testutil.TestJWTSecret})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", routes.AuthMiddleware(jwtService), routes.RequireRole("user"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":  "Access granted",
			"owner":    c.GetString(handlers.ContextOwnerUID),
			"username": c.GetString(handlers.ContextUsername),
		})
	})
	return r, jwtService
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	r, _ := newProtectedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.TokenFor(t, "u1", "USER"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Access granted", response["message"])
	assert.Equal(t, "u1", response["owner"])
	assert.Equal(t, "u1-name", response["username"])
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	r, jwtService := newProtectedRouter(t)
	expired, err := jwtService.GenerateToken("u1", "alice", []string{"user"}, -time.Minute)
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		header     string
		wantStatus int
		wantError  string
	}{
		"no token":        {header: "", wantStatus: http.StatusUnauthorized, wantError: "Authorization header required"},
		"not bearer":      {header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantError: "Invalid token format"},
		"invalid token":   {header: "Bearer invalid.jwt.token", wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
		"expired token":   {header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
		"missing role":    {header: "Bearer " + testutil.TokenFor(t, "u1", "viewer"), wantStatus: http.StatusForbidden, wantError: "Insufficient role"},
		"no roles at all": {header: "Bearer " + testutil.TokenFor(t, "u1", ""), wantStatus: http.StatusForbidden, wantError: "Insufficient role"},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			var response models.ErrorView
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.wantError, response.Error)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Formatter: log.LogfmtFormatter})

	r := gin.New()
	r.Use(routes.RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("echoes the caller's request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(routes.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(routes.RequestIDHeader))
		assert.Contains(t, buf.String(), "request_id=req-123")
		assert.Contains(t, buf.String(), "status=200")
	})

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		_, err := uuid.Parse(w.Header().Get(routes.RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("logs unmatched paths", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, buf.String(), "path=/missing")
		assert.Contains(t, buf.String(), "status=404")
	})
}

func TestHealth_MemoryStore(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_MySQL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.TestConfig()
	r, err := routes.SetupRouter(routes.Dependencies{Config: cfg, DB: db, Logger: log.New(&bytes.Buffer{})})
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.Close()
	w = testutil.DoJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/Todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
