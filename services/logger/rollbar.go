package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// RollbarLogger prints every entry and reports them to Rollbar when a token is configured.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{std: std, debug: conf.Debug}
}

// reportArgs turns logger args into rollbar args: the message first, then errors and extras.
// The first user.User becomes the Rollbar person; its account type is added to the extras.
func reportArgs(msg string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+2)
	out = append(out, msg)

	var person *user.User
	extras := map[string]interface{}{}
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if person == nil {
				usr := a
				person = &usr
			}
		case map[string]interface{}:
			for k, v := range a {
				extras[k] = v
			}
		default:
			out = append(out, arg)
		}
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.Name, person.Email)
		extras["account_type"] = person.AccountType
	} else {
		rollbar.ClearPerson()
	}
	if len(extras) > 0 {
		out = append(out, extras)
	}
	return out
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	printArgs(l.std, "DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(reportArgs(msg, args)...)
	printArgs(l.std, "INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(reportArgs(msg, args)...)
	printArgs(l.std, "WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(reportArgs(msg, args)...)
	printArgs(l.std, "ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(reportArgs(msg, args)...)
	printArgs(l.std, "FATAL", msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
