// Package logging builds the process logger.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to out. Unknown levels fall back to info and
// unknown formats to text.
func New(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return log
}
