/*
Copyright The Reginleif Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logging

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DebugEnabledFunc is a function type that determines if debug logging is enabled
// We use a function because we want to check the setting at log time, not when the logger is created
type DebugEnabledFunc func() bool

// DebugCheckFormatter drops debug and trace entries unless debugEnabled
// reports true at the time the entry is written.
type DebugCheckFormatter struct {
	formatter    logrus.Formatter
	debugEnabled DebugEnabledFunc
}

// Format implements logrus.Formatter.
func (f *DebugCheckFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.Level >= logrus.DebugLevel {
		if f.debugEnabled == nil || !f.debugEnabled() {
			return nil, nil
		}
	}
	return f.formatter.Format(entry)
}

// NewLogger creates a new logger with dynamic debug checking
func NewLogger(out io.Writer, debugEnabled DebugEnabledFunc) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	// Always use DebugLevel here to allow all messages through;
	// the formatter does the filtering.
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&DebugCheckFormatter{
		formatter: &logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
		},
		debugEnabled: debugEnabled,
	})
	return l
}

// Discard returns a logger that drops everything written to it.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// OrDiscard returns log, or a discarding logger when log is nil.
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return Discard()
	}
	return log
}

// LoggerSetterGetter is an interface that can set and get a logger
type LoggerSetterGetter interface {
	// SetLogger sets a new logger
	SetLogger(newLogger *logrus.Logger)
	// Logger returns the current logger
	Logger() *logrus.Logger
}

type LogHolder struct {
	// logger is an atomic.Pointer[logrus.Logger] to store the logger
	// We use atomic.Pointer for thread safety
	logger atomic.Pointer[logrus.Logger]
}

// Logger returns the logger for the LogHolder. If none was set, returns a discarding logger.
func (l *LogHolder) Logger() *logrus.Logger {
	if lg := l.logger.Load(); lg != nil {
		return lg
	}
	return Discard()
}

// SetLogger sets the logger for the LogHolder. A nil logger discards output.
func (l *LogHolder) SetLogger(newLogger *logrus.Logger) {
	if newLogger == nil {
		l.logger.Store(Discard())
		return
	}
	l.logger.Store(newLogger)
}

// Ensure LogHolder implements LoggerSetterGetter
var _ LoggerSetterGetter = &LogHolder{}
