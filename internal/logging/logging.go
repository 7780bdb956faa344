package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var onceLog sync.Once

// Init installs a named production logger as the zap global and routes the
// standard library logger through it. Later calls are no-ops.
func Init(appName, level, file string) error {
	var initErr error
	onceLog.Do(func() {
		zapConfig := zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			initErr = fmt.Errorf("invalid log level: %w", err)
			return
		}

		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
		if file != "" {
			zapConfig.OutputPaths = []string{file}
		}
		zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)

		logger, err := zapConfig.Build()
		if err != nil {
			initErr = fmt.Errorf("failed to create logger: %w", err)
			return
		}

		logger = logger.Named(appName)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
	return initErr
}
