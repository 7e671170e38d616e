package handler

import (
	"sync"

	"go.uber.org/zap"
)

// ShellNavigator implements port.Navigator for the HTTP shell. The
// console has no browser history to push to, so navigation is recorded
// as the current route and logged; handlers translate guard redirects
// into HTTP redirects themselves.
type ShellNavigator struct {
	mu      sync.Mutex
	current string
	logger  *zap.Logger
}

// NewShellNavigator starts at the given route.
func NewShellNavigator(start string, logger *zap.Logger) *ShellNavigator {
	return &ShellNavigator{current: start, logger: logger}
}

func (n *ShellNavigator) NavigateTo(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if route == n.current {
		return
	}
	n.logger.Info("navigation", zap.String("from", n.current), zap.String("to", route))
	n.current = route
}

// Current returns the route the shell considers active.
func (n *ShellNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
