// Package config はアプリケーション設定の読み込みを扱います。
//
// 読み込み順序 (後のものが優先):
//  1. 既定値
//  2. 設定ファイル (.toml / .yaml / .yml)
//  3. .env ファイル
//  4. 環境変数
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Auth     AuthConfig     `toml:"auth" yaml:"auth"`
	Keycloak KeycloakConfig `toml:"keycloak" yaml:"keycloak"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr                   string   `toml:"addr" yaml:"addr"`
	AllowOrigins           []string `toml:"allow_origins" yaml:"allow_origins"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// ShutdownTimeout はグレースフルシャットダウンの待ち時間です。
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig はストアの設定です。Driver が memory の場合は接続情報を使いません。
type DatabaseConfig struct {
	Driver                 string `toml:"driver" yaml:"driver"`
	User                   string `toml:"user" yaml:"user"`
	Pass                   string `toml:"pass" yaml:"pass"`
	Host                   string `toml:"host" yaml:"host"`
	Port                   string `toml:"port" yaml:"port"`
	Name                   string `toml:"name" yaml:"name"`
	MaxOpenConns           int    `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns           int    `toml:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `toml:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
}

// AuthConfig はアクセストークン検証の設定です。
// JWTSecret (HS256) と PublicKeyFile (RS256) のどちらかが必要です。
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret" yaml:"jwt_secret"`
	PublicKeyFile string `toml:"public_key_file" yaml:"public_key_file"`
	Issuer        string `toml:"issuer" yaml:"issuer"`
	RequiredRole  string `toml:"required_role" yaml:"required_role"`
}

// KeycloakConfig はIDプロバイダーのトークンエンドポイントの設定です。
type KeycloakConfig struct {
	AuthServerURL   string `toml:"auth_server_url" yaml:"auth_server_url"`
	LogoutServerURL string `toml:"logout_server_url" yaml:"logout_server_url"`
	ClientID        string `toml:"client_id" yaml:"client_id"`
	ClientSecret    string `toml:"client_secret" yaml:"client_secret"`
	TimeoutSeconds  int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default は既定値を設定した Config を返します。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			AllowOrigins:           []string{"http://localhost:3000"},
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Driver:                 DriverMySQL,
			Host:                   "127.0.0.1",
			Port:                   "3306",
			MaxOpenConns:           25,
			MaxIdleConns:           25,
			ConnMaxLifetimeSeconds: 300,
		},
		Auth: AuthConfig{
			RequiredRole: "user",
		},
		Keycloak: KeycloakConfig{
			TimeoutSeconds: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load は path の設定ファイル (空なら省略) と .env、環境変数から設定を読み込みます。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TASKBOARD_CONFIG")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// .env は任意。既に設定されている環境変数は上書きしません
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.DecodeFile(path, cfg)
		return err
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.AllowOrigins = splitList(v)
	}

	setString(&cfg.Database.Driver, "STORE_DRIVER")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Pass, "DB_PASS")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Name, "DB_NAME")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.PublicKeyFile, "JWT_PUBLIC_KEY_FILE")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.Auth.RequiredRole, "AUTH_REQUIRED_ROLE")

	setString(&cfg.Keycloak.AuthServerURL, "KEYCLOAK_AUTH_SERVER_URL")
	setString(&cfg.Keycloak.LogoutServerURL, "KEYCLOAK_LOGOUT_SERVER_URL")
	setString(&cfg.Keycloak.ClientID, "KEYCLOAK_CLIENT_ID")
	setString(&cfg.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate は起動できない設定を検出します。
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverMySQL:
		if c.Database.User == "" || c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database user, host and name are required for the mysql driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && c.Auth.PublicKeyFile == "" {
		return errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE must be set")
	}
	if c.Server.Addr == "" {
		return errors.New("server address is empty")
	}
	return nil
}
