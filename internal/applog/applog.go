package applog

import (
	"os"
	"path/filepath"

	"github.com/powerman/structlog"
)

// Init configures the default structlog logger for the whole process.
func Init(debug bool) {
	level := structlog.INF
	if debug {
		level = structlog.DBG
	}
	structlog.DefaultLogger.
		SetPrefixKeys(
			structlog.KeyApp, structlog.KeyPID, structlog.KeyLevel, structlog.KeyUnit, structlog.KeyTime,
		).
		SetDefaultKeyvals(
			structlog.KeyApp, filepath.Base(os.Args[0]),
			structlog.KeySource, structlog.Auto,
		).
		SetSuffixKeys(structlog.KeySource, structlog.KeyStack).
		SetKeysFormat(map[string]string{
			structlog.KeyTime:   " %[2]s",
			structlog.KeySource: " %6[2]s",
			structlog.KeyUnit:   " %6[2]s",
		}).
		SetLogLevel(level)
}

func New(unit string) *structlog.Logger {
	return structlog.New(structlog.KeyUnit, unit)
}
