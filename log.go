package cardano

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var log = zerolog.New(nil).Output(zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.TimeOnly,
}).With().Timestamp().Logger()

func Log() *zerolog.Logger {
	return &log
}

func init() {
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.ErrorStackMarshaler = MarshalStack
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLogLevel parses one of trace|debug|info|warn|error|fatal and applies it
// globally. An empty level leaves the current level untouched.
func SetLogLevel(level string) (err error) {
	if level == "" {
		return
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}

	zerolog.SetGlobalLevel(parsed)
	return
}

func MarshalStack(err error) interface{} {
	return pkgerrors.MarshalStack(err)
}

func StackTracerMessage(err error) string {
	type StackTracer interface {
		StackTrace() errors.StackTrace
	}

	var errString string

	if err != nil {
		if stackTracer, isStackTracer := err.(StackTracer); isStackTracer {
			for _, f := range stackTracer.StackTrace() {
				errString += fmt.Sprintf("%+v\n", f)
			}
		}
	}

	return errString
}
