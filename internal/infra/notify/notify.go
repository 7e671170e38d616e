// Package notify implements the Notifier port: transient user-visible
// notifications, the console's toast analog.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Log emits notifications through the structured logger. The HTTP shell
// has no browser toast surface, so notifications land in the log stream
// the operator is already watching.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logger-backed notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (n *Log) Success(msg string) {
	n.logger.Info("notification", zap.String("kind", "success"), zap.String("message", msg))
}

func (n *Log) Error(msg string) {
	n.logger.Warn("notification", zap.String("kind", "error"), zap.String("message", msg))
}

// Memory records notifications for assertions in tests.
type Memory struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (n *Memory) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, msg)
}

func (n *Memory) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, msg)
}
