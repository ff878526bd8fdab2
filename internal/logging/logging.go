package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger wraps a logrus logger with a per-run in-memory trace. Every line
// written through it is also captured in order, so the run can attach its own
// log to the outgoing mail or dump it for postmortem diagnosis.
type Logger struct {
	logger *logrus.Logger
	trace  *traceHook
}

// New builds a logger writing to stdout and to a size-rotated file under dir.
// When dir is empty only stdout is used (CLI test mode).
func New(dir string, debug bool) *Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timeLayout,
	})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	var out io.Writer = os.Stdout
	if dir != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(dir, "mailgraph.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
		})
	}
	logger.SetOutput(out)

	trace := &traceHook{}
	logger.AddHook(trace)

	return &Logger{logger: logger, trace: trace}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// Trace returns a copy of all lines logged so far in this run.
func (l *Logger) Trace() []string {
	return l.trace.Lines()
}

// TracePlain renders the run trace as plain text, one line per entry.
func (l *Logger) TracePlain() string {
	return strings.Join(l.trace.Lines(), "\n")
}

// TraceHTML renders the run trace as a minimal standalone HTML document,
// suitable for attaching to the outgoing mail.
func (l *Logger) TraceHTML() string {
	var b strings.Builder
	b.WriteString("<html lang=\"en\"><head><meta http-equiv=\"Content-Type\" content=\"text/html; charset=UTF-8\"></head>\n<body>\n")
	for _, line := range l.trace.Lines() {
		b.WriteString(line)
		b.WriteString("<br/>\n")
	}
	b.WriteString("</body>\n</html>")
	return b.String()
}

// Dump writes the run trace plus any extra content to a postmortem file.
func (l *Logger) Dump(path string, extra string) error {
	content := l.TracePlain()
	if extra != "" {
		content += "\n\n=== MAILDATA ===\n\n" + extra
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// traceHook captures formatted log lines in order of emission.
type traceHook struct {
	mu    sync.Mutex
	lines []string
}

func (h *traceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *traceHook) Fire(entry *logrus.Entry) error {
	line := fmt.Sprintf("%s : %s", entry.Time.Format(timeLayout), entry.Message)
	h.mu.Lock()
	h.lines = append(h.lines, line)
	h.mu.Unlock()
	return nil
}

func (h *traceHook) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}
