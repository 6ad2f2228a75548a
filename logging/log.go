// Package logging initializes the application log. The gateway logs through
// logrus; this package only configures the standard logger so that embedding
// applications keep full control over their own logging setup.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

type prefixFormatter struct {
	prefix    string
	formatter logrus.Formatter
}

// Init options for logging.
type Options struct {

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Output for the application log entries, when nil, the logrus
	// default is kept.
	ApplicationLogOutput io.Writer

	// When set, entries are logged in JSON format.
	ApplicationLogJSONEnabled bool

	// Application log level, e.g. "debug". Defaults to info.
	ApplicationLogLevel string
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}

	return append([]byte(f.prefix), b...), nil
}

// Init initializes the application log.
func Init(o Options) error {
	if o.ApplicationLogJSONEnabled {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if o.ApplicationLogPrefix != "" {
		logrus.SetFormatter(&prefixFormatter{
			o.ApplicationLogPrefix, logrus.StandardLogger().Formatter})
	}

	if o.ApplicationLogOutput != nil {
		logrus.SetOutput(o.ApplicationLogOutput)
	}

	if o.ApplicationLogLevel != "" {
		l, err := logrus.ParseLevel(o.ApplicationLogLevel)
		if err != nil {
			return err
		}

		logrus.SetLevel(l)
	}

	return nil
}
