// Package logging provides structured JSONL event logging for the view
// subsystems. Events carry a severity, the subsystem category, an event
// type, and free-form details.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Category represents the subsystem generating the log
type Category string

const (
	CategoryRender  Category = "render"
	CategoryView    Category = "view"
	CategoryFolding Category = "folding"
	CategoryInput   Category = "input"
	CategoryOverlay Category = "overlay"
	CategoryConfig  Category = "config"
)

// Event represents a structured log event
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Category  Category       `json:"category"`
	EventType string         `json:"type"`
	Details   map[string]any `json:"details,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Logger writes structured events as JSON lines
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// New creates a logger writing to out with the given minimum level
func New(out io.Writer, minLevel Level) *Logger {
	if minLevel == "" {
		minLevel = LevelInfo
	}
	return &Logger{out: out, minLevel: minLevel}
}

// Discard returns a logger that drops every event. Widgets treat a nil
// logger as this.
func Discard() *Logger {
	return &Logger{out: io.Discard, minLevel: LevelError}
}

// SetMinLevel sets the minimum log level
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// Log writes an event if it meets the minimum level
func (l *Logger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if !l.shouldLog(event.Level) {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = l.out.Write(data)
	return err
}

func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}

// Debug logs a debug-level event
func (l *Logger) Debug(cat Category, eventType, message string, details map[string]any) {
	l.Log(Event{Level: LevelDebug, Category: cat, EventType: eventType, Message: message, Details: details})
}

// Info logs an info-level event
func (l *Logger) Info(cat Category, eventType, message string, details map[string]any) {
	l.Log(Event{Level: LevelInfo, Category: cat, EventType: eventType, Message: message, Details: details})
}

// Warn logs a warn-level event
func (l *Logger) Warn(cat Category, eventType, message string, details map[string]any) {
	l.Log(Event{Level: LevelWarn, Category: cat, EventType: eventType, Message: message, Details: details})
}

// Error logs an error-level event
func (l *Logger) Error(cat Category, eventType, message string, details map[string]any) {
	l.Log(Event{Level: LevelError, Category: cat, EventType: eventType, Message: message, Details: details})
}
