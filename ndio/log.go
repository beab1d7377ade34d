package ndio

import "time"

// ModeFlag is a log severity.  Messages below the current mode are dropped.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var (
	// Verbose is set when we want to be exceptionally verbose.
	Verbose bool

	// mode is the minimum severity that will be logged.
	mode = InfoMode
)

// Logger receives the log messages of this module.  Applications embedding the cutout
// client can route messages into their own logging with SetLogger.
type Logger interface {
	// Debugf formats its arguments analogous to fmt.Printf and records the text as a log
	// message at Debug level.
	Debugf(format string, args ...interface{})

	// Infof is like Debugf, but at Info level.
	Infof(format string, args ...interface{})

	// Warningf is like Debugf, but at Warning level.
	Warningf(format string, args ...interface{})

	// Errorf is like Debugf, but at Error level.
	Errorf(format string, args ...interface{})

	// Criticalf is like Debugf, but at Critical level.
	Criticalf(format string, args ...interface{})

	// Shutdown makes sure logs are closed.
	Shutdown()
}

// SetLogMode sets the severity required for a log message to be printed.
// For example, SetLogMode(ndio.WarningMode) will log any calls using
// Warningf, Errorf, or Criticalf.  To turn off all logging, use SilentMode.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

// LogMode returns the current logging severity threshold.
func LogMode() ModeFlag {
	return mode
}

// SetLogger replaces the destination of log messages.  A nil Logger restores
// logging to stderr.
func SetLogger(l Logger) {
	if l == nil {
		l = stdLogger{}
	}
	logger = l
}

// logAt sends a message to l if the severity passes the current mode.
func logAt(l Logger, severity ModeFlag, format string, args ...interface{}) {
	if severity < mode {
		return
	}
	switch severity {
	case DebugMode:
		l.Debugf(format, args...)
	case InfoMode:
		l.Infof(format, args...)
	case WarningMode:
		l.Warningf(format, args...)
	case ErrorMode:
		l.Errorf(format, args...)
	case CriticalMode:
		l.Criticalf(format, args...)
	}
}

func Debugf(format string, args ...interface{}) { logAt(logger, DebugMode, format, args...) }

func Infof(format string, args ...interface{}) { logAt(logger, InfoMode, format, args...) }

func Warningf(format string, args ...interface{}) { logAt(logger, WarningMode, format, args...) }

func Errorf(format string, args ...interface{}) { logAt(logger, ErrorMode, format, args...) }

func Criticalf(format string, args ...interface{}) { logAt(logger, CriticalMode, format, args...) }

// Shutdown closes any log file opened through LogConfig.SetLogger.
func Shutdown() {
	logger.Shutdown()
}

// TimeLog adds elapsed time to logging.
// Example:
//     mylog := NewTimeLog()
//     ...
//     mylog.Debugf("fetched %d blocks", n)  // Appends elapsed time from NewTimeLog() to message.
type TimeLog struct {
	logger Logger
	start  time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{logger, time.Now()}
}

// Elapsed returns the time since the TimeLog was created.
func (t TimeLog) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t TimeLog) logf(severity ModeFlag, format string, args ...interface{}) {
	logAt(t.logger, severity, format+": %s\n", append(args, time.Since(t.start))...)
}

func (t TimeLog) Debugf(format string, args ...interface{}) { t.logf(DebugMode, format, args...) }

func (t TimeLog) Infof(format string, args ...interface{}) { t.logf(InfoMode, format, args...) }

func (t TimeLog) Warningf(format string, args ...interface{}) { t.logf(WarningMode, format, args...) }

func (t TimeLog) Errorf(format string, args ...interface{}) { t.logf(ErrorMode, format, args...) }

func (t TimeLog) Criticalf(format string, args ...interface{}) { t.logf(CriticalMode, format, args...) }
