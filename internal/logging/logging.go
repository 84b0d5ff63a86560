// Package logging は charmbracelet/log のロガーを設定から組み立てます。
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"go-taskboard/backend/internal/config"
)

// New は cfg に従ったロガーを作成します。
func New(cfg config.LogConfig, w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(cfg.Level),
		Formatter:       ParseFormatter(cfg.Format),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "taskboard",
	})
}

// ParseLevel は文字列のログレベルを変換します。不明な値は info です。
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter は text / json / logfmt を変換します。不明な値は text です。
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
