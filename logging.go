package cachesim

import "github.com/sirupsen/logrus"

// Logger is an injected sink carrying a verbosity level, mirroring an
// injected-interface-over-global-singleton pattern rather than reaching
// for a package-level logger. Simulation-domain conditions worth
// surfacing (dirty evictions, bus service) log at Debug; conditions
// approaching an invariant violation log at Warn/Error. Fatal conditions
// are still communicated via a returned error, never through the logger.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// logrusLogger adapts *logrus.Logger to Logger.
type logrusLogger struct {
	entry *logrus.Logger
}

// NewLogger constructs a text-formatted logrus sink at the given
// verbosity. verbosity 0 is WarnLevel (the default); each increment
// lowers it one level, bottoming out at DebugLevel.
func NewLogger(verbosity int) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch {
	case verbosity <= 0:
		l.SetLevel(logrus.WarnLevel)
	case verbosity == 1:
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.DebugLevel)
	}
	return &logrusLogger{entry: l}
}

func (l *logrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// NopLogger discards everything; used by tests that don't care about
// diagnostic output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
