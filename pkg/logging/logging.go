package logging

import (
	"go.uber.org/zap"
)

// Logger is the process logger. It discards everything until Setup runs, so
// packages and tests that never configure logging can still call it.
var Logger = zap.NewNop()

// Setup builds the process logger and installs it as zap's global. Debug
// switches to the human readable development encoder with debug level
// enabled. If the configuration fails to build, Logger falls back to zap's
// example logger and the error is returned.
func Setup(debug bool, appName, appVersion string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	logger, err := cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return Logger, err
	}

	Logger = logger
	zap.ReplaceGlobals(Logger)
	return Logger, nil
}
