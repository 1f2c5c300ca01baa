// Package logging provides a per-module logrus logger, built directly
// on logrus.FieldLogger rather than a module-scoped logging wrapper.
package logging

import "github.com/sirupsen/logrus"

// For returns a logger tagged with the given module name. Callers
// keep the returned logger for the lifetime of the component instead
// of calling For on every log line.
func For(module string) *logrus.Entry {
	return logrus.WithField("module", module)
}

// SetLevel adjusts the package-wide logrus level. Exposed for cmd/actiondemo
// and tests that want quieter or noisier output.
func SetLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
