package definition

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a *logrus.Logger to the chord Logger contract.
// logrus is carried in the teacher's go.mod as an indirect dependency
// of relt; this module promotes it to a direct, wired dependency by
// offering it as an alternate structured-logging backend next to
// DefaultLogger, in the same spirit as prysmaticlabs-prysm and
// ethereum-go-ethereum's own use of logrus for structured fields.
type LogrusLogger struct {
	entry *logrus.Entry
	debug bool
}

// NewLogrusLogger builds a LogrusLogger tagging every line with the
// given node address.
func NewLogrusLogger(addr string) *LogrusLogger {
	l := logrus.New()
	return &LogrusLogger{entry: l.WithField("node", addr)}
}

func (l *LogrusLogger) Info(v ...interface{})                 { l.entry.Info(v...) }
func (l *LogrusLogger) Infof(f string, v ...interface{})       { l.entry.Infof(f, v...) }
func (l *LogrusLogger) Warn(v ...interface{})                 { l.entry.Warn(v...) }
func (l *LogrusLogger) Warnf(f string, v ...interface{})       { l.entry.Warnf(f, v...) }
func (l *LogrusLogger) Error(v ...interface{})                { l.entry.Error(v...) }
func (l *LogrusLogger) Errorf(f string, v ...interface{})     { l.entry.Errorf(f, v...) }
func (l *LogrusLogger) Fatal(v ...interface{})                { l.entry.Fatal(v...) }
func (l *LogrusLogger) Fatalf(f string, v ...interface{})     { l.entry.Fatalf(f, v...) }

func (l *LogrusLogger) Debug(v ...interface{}) {
	if l.debug {
		l.entry.Debug(v...)
	}
}

func (l *LogrusLogger) Debugf(f string, v ...interface{}) {
	if l.debug {
		l.entry.Debugf(f, v...)
	}
}

func (l *LogrusLogger) ToggleDebug(value bool) bool {
	l.debug = value
	if value {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
	return l.debug
}
