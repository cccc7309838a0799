// Package enginelog is the engine's structured logging facility: a
// leveled Logger that formats one Entry per call and fans it out to one
// or more io.Writers.
//
// Grounded on opal-lang-opal/runtime/decorators/logging.go (Level,
// Entry, Formatter/JSONFormatter/TextFormatter, the registry-of-named-
// loggers pattern), adapted from decorator/shell-command logging to
// engine collaborator activity: Component here names a CallFrame,
// Track, Dispatcher, or Engine instead of a decorator name, and
// TxHash/Address/Duration replace Decorator/ExecutionID as the fields a
// ledger-run log line actually carries. The teacher itself builds this
// on the standard library (encoding/json, fmt, time) rather than a
// third-party logging package - no example repo in the retrieval pack
// pulls one in either, with the single exception of a repo this spec's
// teacher was not chosen from - so enginelog follows the teacher's own
// choice rather than reaching for one (see DESIGN.md).
package enginelog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity, ordered low (Trace) to high (Fatal).
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Entry is one structured log record. Component names the collaborator
// that emitted it (e.g. "engine", "callframe", "dispatcher", "track");
// TxHash and Address are left empty when not applicable to the event
// being logged.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component"`
	TxHash    string                 `json:"tx_hash,omitempty"`
	Address   string                 `json:"address,omitempty"`
	Duration  time.Duration          `json:"duration,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Formatter renders an Entry as one output line.
type Formatter interface {
	Format(e *Entry) string
}

// JSONFormatter renders an Entry as a single JSON object per line,
// suitable for ingestion by a log aggregator.
type JSONFormatter struct{}

func (JSONFormatter) Format(e *Entry) string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":"enginelog: marshal failure: %s"}`, err)
	}
	return string(data)
}

// TextFormatter renders an Entry as a single human-readable line.
type TextFormatter struct {
	ShowTimestamp bool
	UseColors     bool
}

func (f TextFormatter) Format(e *Entry) string {
	var parts []string

	if f.ShowTimestamp {
		parts = append(parts, e.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	levelStr := e.Level.String()
	if f.UseColors {
		levelStr = colorize(e.Level, levelStr)
	}
	parts = append(parts, fmt.Sprintf("[%s]", levelStr))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.Component))
	}
	if e.TxHash != "" {
		parts = append(parts, fmt.Sprintf("tx=%s", e.TxHash))
	}
	if e.Address != "" {
		parts = append(parts, fmt.Sprintf("addr=%s", e.Address))
	}

	parts = append(parts, e.Message)

	if e.Duration > 0 {
		parts = append(parts, fmt.Sprintf("duration=%v", e.Duration))
	}
	if e.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%s", e.Error))
	}

	line := strings.Join(parts, " ")

	if len(e.Fields) > 0 {
		var fieldParts []string
		for k, v := range e.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, v))
		}
		line += " " + strings.Join(fieldParts, " ")
	}

	return line
}

func colorize(level Level, text string) string {
	switch level {
	case LevelTrace:
		return "\033[37m" + text + "\033[0m"
	case LevelDebug:
		return "\033[36m" + text + "\033[0m"
	case LevelInfo:
		return "\033[32m" + text + "\033[0m"
	case LevelWarn:
		return "\033[33m" + text + "\033[0m"
	case LevelError:
		return "\033[31m" + text + "\033[0m"
	case LevelFatal:
		return "\033[35m" + text + "\033[0m"
	default:
		return text
	}
}

// Logger writes leveled Entry records for one named component through a
// Formatter to one or more outputs.
type Logger struct {
	mu        sync.RWMutex
	level     Level
	outputs   []io.Writer
	formatter Formatter
	component string
	fields    map[string]interface{}
}

// New builds a Logger for component, defaulting to Info level, a
// timestamped colorized TextFormatter, and stdout - the same defaults
// NewLogger uses in the teacher.
func New(component string) *Logger {
	return &Logger{
		level:     LevelInfo,
		outputs:   []io.Writer{os.Stdout},
		formatter: TextFormatter{ShowTimestamp: true, UseColors: true},
		component: component,
		fields:    make(map[string]interface{}),
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) SetFormatter(f Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatter = f
}

func (l *Logger) AddOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
}

// WithFields returns a derived Logger carrying additional structured
// fields, leaving the receiver untouched.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, outputs: l.outputs, formatter: l.formatter, component: l.component, fields: merged}
}

// WithTxHash is a convenience WithFields wrapper for the field every
// per-transaction log line carries.
func (l *Logger) WithTxHash(txHash string) *Logger {
	return l.WithFields(map[string]interface{}{"tx_hash": txHash})
}

func (l *Logger) log(level Level, message string, err error, duration time.Duration) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level {
		return
	}

	entry := &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Component: l.component,
		Duration:  duration,
		Fields:    l.fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if txHash, ok := l.fields["tx_hash"].(string); ok {
		entry.TxHash = txHash
	}
	if address, ok := l.fields["address"].(string); ok {
		entry.Address = address
	}

	formatted := l.formatter.Format(entry)
	for _, out := range l.outputs {
		if _, err := fmt.Fprintln(out, formatted); err != nil {
			fmt.Fprintf(os.Stderr, "enginelog: write failure: %v\n", err)
		}
	}
}

func (l *Logger) Trace(message string) { l.log(LevelTrace, message, nil, 0) }
func (l *Logger) Debug(message string) { l.log(LevelDebug, message, nil, 0) }
func (l *Logger) Info(message string)  { l.log(LevelInfo, message, nil, 0) }
func (l *Logger) Warn(message string)  { l.log(LevelWarn, message, nil, 0) }
func (l *Logger) Error(message string) { l.log(LevelError, message, nil, 0) }

func (l *Logger) Tracef(format string, args ...interface{}) { l.log(LevelTrace, fmt.Sprintf(format, args...), nil, 0) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, fmt.Sprintf(format, args...), nil, 0) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, fmt.Sprintf(format, args...), nil, 0) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, fmt.Sprintf(format, args...), nil, 0) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, fmt.Sprintf(format, args...), nil, 0) }

// ErrorWithErr logs message with a carried error, distinct from Errorf so
// callers don't have to route an error through %w just to log it.
func (l *Logger) ErrorWithErr(message string, err error) {
	l.log(LevelError, message, err, 0)
}

// LogDuration logs message at level with an attached duration, for
// timing a CallFrame.InvokeSNode call or an Engine.Submit end to end.
func (l *Logger) LogDuration(level Level, message string, d time.Duration) {
	l.log(level, message, nil, d)
}

// Fatal logs at Fatal and exits the process, matching the teacher's own
// Fatal/Fatalf - reserved for cmd/ledgerctl's top-level error path, never
// called from library code inside internal/.
func (l *Logger) Fatal(message string) {
	l.log(LevelFatal, message, nil, 0)
	os.Exit(1)
}

// manager holds every named Logger so collaborators sharing a component
// name (e.g. several CallFrame instances all logging as "callframe")
// share one Logger, configuration and all.
type manager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	level   Level
}

var global = &manager{loggers: make(map[string]*Logger), level: LevelInfo}

// Get returns the shared Logger for component, creating it at the
// current global level on first use.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l := New(component)
	l.SetLevel(global.level)
	global.loggers[component] = l
	return l
}

// SetGlobalLevel sets the level for every Logger returned by Get so far,
// and the default for any created afterward.
func SetGlobalLevel(level Level) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.level = level
	for _, l := range global.loggers {
		l.SetLevel(level)
	}
}

// SetJSON switches every Logger returned by Get so far to JSONFormatter,
// for cmd/ledgerctl's --json flag.
func SetJSON() {
	global.mu.Lock()
	defer global.mu.Unlock()
	for _, l := range global.loggers {
		l.SetFormatter(JSONFormatter{})
	}
}
