package logger

import (
	"fmt"
	"log"
)

// Levels order from most to least verbose. A logger emits messages at its own
// level and above.
const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(format string, a ...any)
	Infof(format string, a ...any)
	Warnf(format string, a ...any)
	Errorf(format string, a ...any)
}

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

type stdLogger struct {
	level int
}

func NewLogger(level int) *stdLogger {
	return &stdLogger{level: level}
}

// NewSilence returns a logger that drops everything. Used by tests.
func NewSilence() *stdLogger {
	return &stdLogger{level: SILENCE}
}

func (l *stdLogger) emit(level int, format string, a ...any) {
	if level < l.level {
		return
	}

	log.Printf("[%s] %s", levelTags[level], fmt.Sprintf(format, a...))
}

func (l *stdLogger) Debugf(format string, a ...any) { l.emit(DEBUG, format, a...) }
func (l *stdLogger) Infof(format string, a ...any)  { l.emit(INFO, format, a...) }
func (l *stdLogger) Warnf(format string, a ...any)  { l.emit(WARNING, format, a...) }
func (l *stdLogger) Errorf(format string, a ...any) { l.emit(ERROR, format, a...) }
