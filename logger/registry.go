package logger

import (
	"sync"
)

// named holds loggers registered for a component name.
var named = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Register stores a logger for a component name, overriding the default
// derived from the global logger.
func Register(name string, l *Logger) {
	named.mu.Lock()
	defer named.mu.Unlock()
	named.loggers[name] = l
}

// Unregister removes a logger stored by Register.
func Unregister(name string) {
	named.mu.Lock()
	defer named.mu.Unlock()
	delete(named.loggers, name)
}

// Get returns the logger registered under name. If none is registered it
// returns the global logger tagged with the component name.
func Get(name string) *Logger {
	named.mu.RLock()
	l, ok := named.loggers[name]
	named.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
