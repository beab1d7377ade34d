package ndio

import (
	"fmt"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
)

type recordingLogger struct {
	messages []string
	closed   bool
}

func (r *recordingLogger) record(level, format string, args ...interface{}) {
	r.messages = append(r.messages, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Debugf(format string, args ...interface{}) { r.record("DEBUG", format, args...) }
func (r *recordingLogger) Infof(format string, args ...interface{})  { r.record("INFO", format, args...) }
func (r *recordingLogger) Warningf(format string, args ...interface{}) {
	r.record("WARNING", format, args...)
}
func (r *recordingLogger) Errorf(format string, args ...interface{}) { r.record("ERROR", format, args...) }
func (r *recordingLogger) Criticalf(format string, args ...interface{}) {
	r.record("CRITICAL", format, args...)
}
func (r *recordingLogger) Shutdown() { r.closed = true }

type LogSuite struct {
	rec      *recordingLogger
	prevMode ModeFlag
}

var _ = Suite(&LogSuite{})

func (s *LogSuite) SetUpTest(c *C) {
	s.rec = new(recordingLogger)
	s.prevMode = LogMode()
	SetLogger(s.rec)
}

func (s *LogSuite) TearDownTest(c *C) {
	SetLogMode(s.prevMode)
	SetLogger(nil)
}

func (s *LogSuite) TestLogMode(c *C) {
	SetLogMode(WarningMode)
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warningf("warning %d", 3)
	Errorf("error %d", 4)
	Criticalf("critical %d", 5)
	c.Assert(s.rec.messages, DeepEquals, []string{"WARNING warning 3", "ERROR error 4", "CRITICAL critical 5"})

	s.rec.messages = nil
	SetLogMode(SilentMode)
	Criticalf("dropped")
	c.Assert(s.rec.messages, HasLen, 0)

	Shutdown()
	c.Assert(s.rec.closed, Equals, true)
}

func (s *LogSuite) TestTimeLog(c *C) {
	SetLogMode(DebugMode)
	tlog := NewTimeLog()
	tlog.Debugf("fetched %d blocks", 12)
	c.Assert(s.rec.messages, HasLen, 1)
	c.Assert(strings.HasPrefix(s.rec.messages[0], "DEBUG fetched 12 blocks: "), Equals, true)
	c.Assert(tlog.Elapsed() >= 0, Equals, true)

	SetLogMode(ErrorMode)
	tlog.Infof("dropped")
	c.Assert(s.rec.messages, HasLen, 1)
}
