package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-taskboard/backend/internal/config"
)

var envKeys = []string{
	"TASKBOARD_CONFIG", "SERVER_ADDR", "FRONTEND_URL", "STORE_DRIVER",
	"DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_MAX_OPEN_CONNS",
	"JWT_SECRET", "JWT_PUBLIC_KEY_FILE", "JWT_ISSUER", "AUTH_REQUIRED_ROLE",
	"KEYCLOAK_AUTH_SERVER_URL", "KEYCLOAK_LOGOUT_SERVER_URL", "KEYCLOAK_CLIENT_ID", "KEYCLOAK_CLIENT_SECRET",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv は空文字列を設定し、テスト実行環境の値が影響しないようにします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_USER", "todo")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "todos")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("FRONTEND_URL", "http://a.example, http://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "todo", cfg.Database.User)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, "user", cfg.Auth.RequiredRole)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout())
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "taskboard.toml", `
[server]
addr = ":9090"
allow_origins = ["https://todo.example"]

[database]
driver = "memory"

[auth]
jwt_secret = "from-file"
required_role = "member"

[keycloak]
auth_server_url = "https://idp.example/token"
client_id = "todo-app"
`)
	// 環境変数はファイルより優先される
	t.Setenv("SERVER_ADDR", ":7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"https://todo.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "member", cfg.Auth.RequiredRole)
	assert.Equal(t, "https://idp.example/token", cfg.Keycloak.AuthServerURL)
	assert.Equal(t, "todo-app", cfg.Keycloak.ClientID)
	assert.Equal(t, 10, cfg.Keycloak.TimeoutSeconds, "defaults survive partial files")
}

func TestLoad_YAMLFileFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "taskboard.yaml", `
database:
  driver: memory
auth:
  jwt_secret: yaml-secret
log:
  format: json
`)
	t.Setenv("TASKBOARD_CONFIG", path)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "yaml-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	for name, tc := range map[string]struct {
		file string
		body string
		env  map[string]string
	}{
		"unknown extension": {
			file: "taskboard.ini",
			body: "addr=:80",
		},
		"broken toml": {
			file: "taskboard.toml",
			body: "[server\naddr=",
		},
		"unknown driver": {
			env: map[string]string{"STORE_DRIVER": "postgres", "JWT_SECRET": "x"},
		},
		"mysql without connection settings": {
			env: map[string]string{"JWT_SECRET": "x"},
		},
		"no token key": {
			env: map[string]string{"STORE_DRIVER": "memory"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.file != "" {
				path = writeFile(t, tc.file, tc.body)
			}

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDefault_IsMySQL(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, config.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowOrigins)
}
