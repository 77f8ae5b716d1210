package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. Production emits JSON for log shipping,
// development keeps the human-readable text formatter.
func New(level string, isProduction bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if isProduction {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	// Packages that log through the std logger (response.Error) share the same setup
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(lvl)
	logrus.SetOutput(log.Out)

	return log
}
