package types

// Logger is the logging collaborator every component that can observe
// a recoverable anomaly (a stale pong, an unexpected message, a
// dropped successor) takes as a field, mirroring the teacher's
// types.Logger contract used throughout core.Peer and mcast.Unity.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	ToggleDebug(value bool) bool
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}
