package definition

import (
	plog "github.com/prometheus/common/log"
)

// PrometheusLogger adapts github.com/prometheus/common/log to the
// chord Logger contract. The teacher's transport.go imports this
// package already (for its own error logging inside ReliableTransport);
// this module promotes it to a selectable top-level Logger backend,
// exercised by the chordnode CLI's -log-backend=prometheus flag.
type PrometheusLogger struct {
	debug bool
}

// NewPrometheusLogger builds a PrometheusLogger.
func NewPrometheusLogger() *PrometheusLogger {
	return &PrometheusLogger{}
}

func (l *PrometheusLogger) Info(v ...interface{})             { plog.Info(v...) }
func (l *PrometheusLogger) Infof(f string, v ...interface{})   { plog.Infof(f, v...) }
func (l *PrometheusLogger) Warn(v ...interface{})              { plog.Warn(v...) }
func (l *PrometheusLogger) Warnf(f string, v ...interface{})   { plog.Warnf(f, v...) }
func (l *PrometheusLogger) Error(v ...interface{})             { plog.Error(v...) }
func (l *PrometheusLogger) Errorf(f string, v ...interface{})  { plog.Errorf(f, v...) }
func (l *PrometheusLogger) Fatal(v ...interface{})             { plog.Fatal(v...) }
func (l *PrometheusLogger) Fatalf(f string, v ...interface{})  { plog.Fatalf(f, v...) }

func (l *PrometheusLogger) Debug(v ...interface{}) {
	if l.debug {
		plog.Debug(v...)
	}
}

func (l *PrometheusLogger) Debugf(f string, v ...interface{}) {
	if l.debug {
		plog.Debugf(f, v...)
	}
}

func (l *PrometheusLogger) ToggleDebug(value bool) bool {
	l.debug = value
	return l.debug
}
