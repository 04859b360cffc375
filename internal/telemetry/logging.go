package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName — имя файла логов в каталоге WORKER_LOG_DIR.
const LogFileName = "content_worker.log"

// LogConfig — параметры логирования.
type LogConfig struct {
	// Level — DEBUG, INFO, WARN, ERROR (default: INFO).
	Level string

	// Format — "json" (по умолчанию) или "text".
	Format string

	// Dir — каталог для файла логов. Пусто — только stdout.
	Dir string
}

// ParseLevel определяет уровень логирования по строке.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger создаёт логгер процесса. Глобальный slog.Default не меняется:
// логгер передаётся компонентам явно.
//
// Формат вывода определяется LogConfig.Format:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
//
// Если задан Dir, логи дублируются в ротируемый файл.
// Возвращённая функция закрывает файл.
func SetupLogger(cfg LogConfig) (*slog.Logger, func() error) {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var out io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if cfg.Dir != "" {
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, LogFileName),
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}

	return slog.New(newHandler(out, cfg.Format, opts)), closeFn
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithWorkID возвращает логгер с добавленным work_id.
func WithWorkID(logger *slog.Logger, workID int64) *slog.Logger {
	return logger.With("work_id", workID)
}

// WithExecutionID возвращает логгер с добавленным execution_id.
func WithExecutionID(logger *slog.Logger, executionID string) *slog.Logger {
	return logger.With("execution_id", executionID)
}
