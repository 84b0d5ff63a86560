// Package database はMySQLへの接続とスキーマの作成を扱います。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"

	"go-taskboard/backend/internal/config"
)

const schema = `CREATE TABLE IF NOT EXISTS todos (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  owner_uid VARCHAR(255) NOT NULL,
  title VARCHAR(50) NOT NULL,
  description VARCHAR(250) NOT NULL,
  is_completed BOOLEAN NULL,
  due_date DATE NOT NULL,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  INDEX idx_todos_owner (owner_uid, is_completed)
)`

// GetDSN は設定からMySQL接続文字列 (DSN) を構築します。
func GetDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Pass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	// UPDATE の RowsAffected を「一致した行数」にする (値が変わらない更新でも 0 にならない)
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// InitDB はデータベース接続を初期化し、疎通を確認します。
func InitDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info("connected to MySQL", "addr", net.JoinHostPort(cfg.Host, cfg.Port), "db", cfg.Name)
	return db, nil
}

// EnsureSchema は todos テーブルが無ければ作成します。
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}
	return nil
}
