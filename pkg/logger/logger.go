package logger

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cron adapts a zerolog logger to cron.Logger. Info goes to debug level so
// per-tick chatter stays out of normal output.
type Cron struct {
	log zerolog.Logger
}

var _ cron.Logger = Cron{}

// NewCron returns a cron.Logger tagged with component.
func NewCron(base zerolog.Logger, component string) Cron {
	return Cron{log: base.With().Str("component", component).Logger()}
}

func (c Cron) Info(msg string, keysAndValues ...interface{}) {
	withPairs(c.log.Debug(), keysAndValues).Msg(msg)
}

func (c Cron) Error(err error, msg string, keysAndValues ...interface{}) {
	withPairs(c.log.Error().Err(err), keysAndValues).Msg(msg)
}

func withPairs(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		e = e.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	if len(kv)%2 == 1 {
		e = e.Interface("extra", kv[len(kv)-1])
	}
	return e
}
