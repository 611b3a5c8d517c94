package overlay

import (
	"github.com/sirupsen/logrus"
)

var log logrus.FieldLogger = logrus.StandardLogger().WithField("prefix", "overlay")

// SetLogger replaces the package logger. Entries are tagged with a "prefix"
// field for prefixed formatters.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	log = l.WithField("prefix", "overlay")
}

func logger() logrus.FieldLogger { return log }
