// SPDX-License-Identifier: MIT
//
// Package log is a small levelled logger over the standard library logger.
// Everything goes to stderr: stdout may be carrying raw PCM.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel converts a string (case-insensitive, "warning" allowed) to a
// LogLevel. Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	s := strings.ToUpper(strings.TrimSpace(levelStr))
	if s == "WARNING" {
		s = "WARN"
	}
	for l, name := range levelNames {
		if s == name {
			return LogLevel(l), true
		}
	}
	return LevelInfo, false
}

var (
	currentLevel atomic.Uint32
	logger       = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)
)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel returns the global logging level.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Enabled reports whether messages at level are logged. Use it to skip
// building expensive messages.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func output(level LogLevel, msg string) {
	if Enabled(level) {
		logger.Printf("[%-5s] %s", level, msg)
	}
}

func Debugf(format string, v ...any) { output(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { output(LevelInfo, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { output(LevelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { output(LevelError, fmt.Sprintf(format, v...)) }

func Debug(v ...any) { output(LevelDebug, fmt.Sprint(v...)) }
func Info(v ...any)  { output(LevelInfo, fmt.Sprint(v...)) }
func Warn(v ...any)  { output(LevelWarn, fmt.Sprint(v...)) }
func Error(v ...any) { output(LevelError, fmt.Sprint(v...)) }

// Fatalf logs regardless of the current level and exits with status 1.
func Fatalf(format string, v ...any) {
	logger.Fatalf("[%-5s] %s", LevelFatal, fmt.Sprintf(format, v...))
}
