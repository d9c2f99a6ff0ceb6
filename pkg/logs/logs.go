// Package logs configures the logging for graphseal. All log output goes to
// stderr so documents written to stdout stay machine readable.
package logs

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var logLevel string

// AddFlags adds log related flags to the supplied flag set.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&logLevel,
		"log-level",
		"info",
		"Log level. One of: trace, debug, info, warn, error.",
	)
}

// Initialize applies the configuration from the logging flags. It must be
// called after flags have been parsed and before any logging happens.
func Initialize() {
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Component returns a log entry tagged with the name of the component doing
// the logging, so messages from the different subsystems can be told apart.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
