// Package logger provides structured logging with per-task context
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger interface for abstracted logging
type Logger interface {
	Info(message string, fields ...Field)
	Error(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Debug(message string, fields ...Field)
	Success(message string, fields ...Field)
	WithTask(task string) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// TaskLogger implements Logger with task awareness
type TaskLogger struct {
	logger   *logrus.Logger
	taskName string
	mu       sync.RWMutex
}

// CustomFormatter formats logs with colors and a task prefix
type CustomFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

type levelStyle struct {
	text  string
	color *color.Color
}

var levelStyles = map[logrus.Level]levelStyle{
	logrus.ErrorLevel: {"ERROR", color.New(color.FgRed, color.Bold)},
	logrus.WarnLevel:  {"WARN", color.New(color.FgYellow, color.Bold)},
	logrus.InfoLevel:  {"INFO", color.New(color.FgCyan)},
	logrus.DebugLevel: {"DEBUG", color.New(color.FgWhite, color.Faint)},
}

var (
	taskColor  = color.New(color.FgBlue)
	fieldColor = color.New(color.FgWhite, color.Faint)
)

// Format implements logrus.Formatter
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	style, ok := levelStyles[entry.Level]
	if !ok {
		style = levelStyle{"SUCCESS", color.New(color.FgGreen)}
	}
	levelText := style.text
	if !f.DisableColors {
		levelText = style.color.Sprint(style.text)
	}

	var b strings.Builder
	b.WriteString("🚂 [")
	b.WriteString(entry.Time.Format(f.TimestampFormat))
	b.WriteString("] ")
	b.WriteString(levelText)
	b.WriteString(": ")

	if task, ok := entry.Data["task"]; ok {
		name := fmt.Sprint(task)
		if !f.DisableColors {
			name = taskColor.Sprint(name)
		}
		fmt.Fprintf(&b, "[%s] ", name)
		delete(entry.Data, "task") // avoid duplication in the field list
	}

	b.WriteString(entry.Message)

	// Fields are sorted so lines are stable across runs.
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			pair := fmt.Sprintf(" %s=%v", k, entry.Data[k])
			if !f.DisableColors {
				pair = fieldColor.Sprint(pair)
			}
			b.WriteString(pair)
		}
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// CreateLogger creates a new logger instance
func CreateLogger(logFile string, logLevel string) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   false,
	})

	// Add file output if specified
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			multiWriter := io.MultiWriter(os.Stdout, file)
			log.SetOutput(multiWriter)
		}
	}

	return &TaskLogger{
		logger: log,
	}
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logFile string, logLevel string, output io.Writer) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   true, // Disable colors for test output
	})

	if output != nil {
		log.SetOutput(output)
	} else {
		log.SetOutput(io.Discard)
	}

	return &TaskLogger{
		logger: log,
	}
}

// WithTask creates a new logger with task context
func (l *TaskLogger) WithTask(task string) Logger {
	return &TaskLogger{
		logger:   l.logger,
		taskName: task,
	}
}

// convertFields converts Field slice to logrus.Fields
func (l *TaskLogger) convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields)
	if l.taskName != "" {
		result["task"] = l.taskName
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

// Info logs an info message
func (l *TaskLogger) Info(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info(message)
}

// Error logs an error message
func (l *TaskLogger) Error(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Error(message)
}

// Warn logs a warning message
func (l *TaskLogger) Warn(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Warn(message)
}

// Debug logs a debug message
func (l *TaskLogger) Debug(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Debug(message)
}

// Success logs a success message (info level with special formatting)
func (l *TaskLogger) Success(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info("✅ " + message)
}
