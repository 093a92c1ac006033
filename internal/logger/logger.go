// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// kapenta writes lifecycle, registration, and render events to one JSON log
// per day under `<directory>/YYYY-MM-DD.log`.  The directory and minimum
// level come from the optional `logging` block; without it we fall back to
// `./logs` at INFO.  When running in an interactive TTY the same events are
// teed, human-readable, to stdout.  Rotation, compression, and retention are
// handled by Lumberjack.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Logging, cfg.BaseDir, isTTY)
//	if err != nil { … }
//	log.Infow("report registered", "report", name)
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/kapenta/internal/config"
)

// DefaultDirectory is used when the logging block omits one.
const DefaultDirectory = "logs"

// New returns a *zap.SugaredLogger that writes JSON to
// <dir>/YYYY-MM-DD.log.  A relative directory is resolved against baseDir.
// When tee == true, a console core is also attached.  The logger is
// installed as the process-wide default via zap.ReplaceGlobals.
func New(cfg *config.Logging, baseDir string, tee bool) (*zap.SugaredLogger, error) {
	dir, level, err := settings(cfg, baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", dir, err)
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "dir", dir, "level", level.String(), "tee", tee)
	return z, nil
}

// settings resolves the directory and level, applying defaults.
func settings(cfg *config.Logging, baseDir string) (string, zapcore.Level, error) {
	dir, lvl := DefaultDirectory, "info"
	if cfg != nil {
		if cfg.Directory != "" {
			dir = cfg.Directory
		}
		if cfg.Level != "" {
			lvl = cfg.Level
		}
	}
	if !filepath.IsAbs(dir) && baseDir != "" {
		dir = filepath.Join(baseDir, dir)
	}

	level, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return "", zapcore.InfoLevel, fmt.Errorf("logging level %q: %w", lvl, err)
	}
	return dir, level, nil
}
