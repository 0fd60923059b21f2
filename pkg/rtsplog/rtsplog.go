// Package rtsplog defines the injected logging capability Design Notes
// §9 calls for ("logging is an injected capability (trait/interface
// with an operation log(level, message))"). The OnRequest/OnResponse
// observer hooks are not in this package; they are session options
// (session.WithOnRequest, session.WithOnResponse), grounded on the
// teacher's own Client.OnRequest/Client.OnResponse callback fields in
// client.go, which default to no-op closures rather than pulling in a
// third-party structured-logging library — the teacher carries zero
// logging dependencies, so this core carries none either.
package rtsplog

import "log"

// Logger is the capability injected into session.Session (via
// session.WithLogger) for diagnostic output; conn.Connection takes no
// Logger. Nil is a valid value wherever
// a Logger parameter appears; callers that don't supply one get
// NopLogger behavior.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NopLogger is a Logger that discards all output, the default when no
// Logger is supplied.
var NopLogger Logger = nopLogger{}

// StdLogger adapts the standard library's *log.Logger to the Logger
// interface, for callers who want output without reaching for a
// third-party structured-logging library. Mirrors the teacher's own
// stance of carrying zero logging dependencies; no example in the
// retrieval pack pulls in zap/zerolog/logrus for this.
type StdLogger struct {
	L *log.Logger
}

func (s StdLogger) Debugf(format string, args ...interface{}) {
	s.L.Printf("DEBUG "+format, args...)
}

func (s StdLogger) Warnf(format string, args ...interface{}) {
	s.L.Printf("WARN "+format, args...)
}

func (s StdLogger) Errorf(format string, args ...interface{}) {
	s.L.Printf("ERROR "+format, args...)
}

// OrNop returns l, or NopLogger if l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger
	}
	return l
}
