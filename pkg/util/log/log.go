// Package log holds the process-wide leveled logger shared across nexlog's
// modules, mirroring the teacher's pkg/util/log convention: a single
// package-level go-kit Logger, configured once at startup and passed around
// by value from then on.
package log

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the process-wide structured logger. InitLogger replaces it at
// startup once the configured log level is known; until then it defaults to
// an info-filtered logfmt logger on stderr so package-init-time logging
// still produces reasonable output.
var Logger = newLogger(level.AllowInfo())

func newLogger(option level.Option) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, option)
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return l
}

// InitLogger replaces the package Logger with one filtered at the given
// level name (trace/debug/info/warn/error; anything else defaults to
// info), per the nexlog configuration's logging section.
func InitLogger(levelName string) {
	var option level.Option
	switch levelName {
	case "debug", "trace":
		option = level.AllowDebug()
	case "warn":
		option = level.AllowWarn()
	case "error":
		option = level.AllowError()
	default:
		option = level.AllowInfo()
	}
	Logger = newLogger(option)
}
