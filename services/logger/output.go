// Package logsvc reports application logs to stdout (or a rotating file) and to an error tracker.
package logsvc

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// NewOutput returns stdout, or a rotating file when a log file is configured.
func NewOutput(conf *core.Config) io.Writer {
	if conf.Log.File == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   conf.Log.File,
		MaxSize:    conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAge:     conf.Log.MaxAgeDays,
		Compress:   true,
	}
}

func NewStdLogger(conf *core.Config) *log.Logger {
	return log.New(NewOutput(conf), conf.AppName+" : ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// New picks Sentry when a DSN is configured and falls back to Rollbar.
func New(std *log.Logger, conf *core.Config) core.Logger {
	if conf.SentryDSN != "" {
		l, err := NewSentryLogger(std, conf)
		if err == nil {
			return l
		}
		std.Printf("sentry init failed, using rollbar: %v", err)
	}
	return NewRollbarLogger(std, conf)
}

func printArgs(std *log.Logger, level, msg string, args []interface{}) {
	std.Printf("%s %s", level, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			std.Printf("  user=%s", v.ID)
		case error:
			std.Printf("  %v", v)
		default:
			std.Printf("  %+v", v)
		}
	}
}
