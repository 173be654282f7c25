// Package rtlog provides the structured logging surface shared by the
// trigger, backfill, and key-generator subsystems. It is a thin wrapper
// around logrus so call sites stay terse and every log line carries a
// consistent "component" field.
package rtlog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is a logrus.FieldLogger scoped to one component.
type Logger = logrus.FieldLogger

// Fields is logrus.Fields, re-exported so call sites never import
// logrus directly.
type Fields = logrus.Fields

var base = logrus.StandardLogger()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// For returns a logger pre-tagged with the given component name.
func For(component string) Logger {
	return base.WithField("component", component)
}

// SetOutput lets callers (tests, the CLI) redirect log output.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
