package logsvc

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

const sentryFlushTimeout = 2 * time.Second

type SentryLogger struct {
	std *log.Logger
}

var _ core.Logger = (*SentryLogger)(nil)

func NewSentryLogger(std *log.Logger, conf *core.Config) (*SentryLogger, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         conf.SentryDSN,
		Environment: conf.Env,
		Release:     conf.Build,
		ServerName:  conf.Server.Host,
		Debug:       conf.Debug,
	})
	if err != nil {
		return nil, err
	}
	return &SentryLogger{std: std}, nil
}

// Flush waits for buffered events to be sent.
func (l SentryLogger) Flush() {
	sentry.Flush(sentryFlushTimeout)
}

func (l SentryLogger) capture(level sentry.Level, msg string, args []interface{}) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		var (
			err   error
			extra = sentry.Context{}
		)
		for _, arg := range args {
			switch a := arg.(type) {
			case user.User:
				scope.SetUser(sentry.User{ID: a.ID, Email: a.Email, Name: a.Name})
			case error:
				if err == nil {
					err = a
				}
			case map[string]interface{}:
				for k, v := range a {
					extra[k] = v
				}
			}
		}
		if len(extra) > 0 {
			scope.SetContext("data", extra)
		}
		if err != nil {
			scope.SetTag("message", msg)
			sentry.CaptureException(err)
			return
		}
		sentry.CaptureMessage(msg)
	})
}

func (l SentryLogger) Debug(msg string, args ...interface{}) {
	printArgs(l.std, "DEBUG", msg, args)
}

func (l SentryLogger) Info(msg string, args ...interface{}) {
	printArgs(l.std, "INFO", msg, args)
}

func (l SentryLogger) Warn(msg string, args ...interface{}) {
	l.capture(sentry.LevelWarning, msg, args)
	printArgs(l.std, "WARN", msg, args)
}

func (l SentryLogger) Error(msg string, args ...interface{}) {
	l.capture(sentry.LevelError, msg, args)
	printArgs(l.std, "ERROR", msg, args)
}

func (l SentryLogger) Fatal(msg string, args ...interface{}) {
	l.capture(sentry.LevelFatal, msg, args)
	printArgs(l.std, "FATAL", msg, args)
	l.Flush()
	l.std.Fatal(msg)
}
