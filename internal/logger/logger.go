// Package logger provides a thread-safe in-memory ring of status messages
// served over the node's log endpoint and live feed.
package logger

import (
	"sync"
	"time"
)

// Message represents a single log message
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Level     string    `json:"level"` // info, warning, error
}

// Logger keeps the last maxSize messages in a fixed ring.
type Logger struct {
	mu      sync.RWMutex
	ring    []Message
	next    int
	filled  bool
	maxSize int
}

// New creates a new logger retaining at most maxSize messages.
func New(maxSize int) *Logger {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Logger{
		ring:    make([]Message, maxSize),
		maxSize: maxSize,
	}
}

// Log adds a new message, evicting the oldest when the ring is full.
func (l *Logger) Log(level, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.next] = Message{
		Timestamp: time.Now(),
		Text:      text,
		Level:     level,
	}
	l.next++
	if l.next == l.maxSize {
		l.next = 0
		l.filled = true
	}
}

// Info logs an info-level message
func (l *Logger) Info(text string) {
	l.Log("info", text)
}

// Warning logs a warning-level message
func (l *Logger) Warning(text string) {
	l.Log("warning", text)
}

// Error logs an error-level message
func (l *Logger) Error(text string) {
	l.Log("error", text)
}

// GetRecent returns the most recent n messages, newest first.
func (l *Logger) GetRecent(n int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := l.next
	if l.filled {
		count = l.maxSize
	}
	if n > count {
		n = count
	}

	result := make([]Message, n)
	for i := 0; i < n; i++ {
		idx := (l.next - 1 - i + l.maxSize) % l.maxSize
		result[i] = l.ring[idx]
	}
	return result
}

// GetAll returns every retained message, newest first.
func (l *Logger) GetAll() []Message {
	return l.GetRecent(l.maxSize)
}
