// Package logging provides leveled component loggers shared with echo.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu      sync.Mutex
	level   = log.INFO
	output  io.Writer
	loggers = map[string]*log.Logger{}
)

// ParseLevel maps a config value (debug, info, warn, error, off) to a level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("unknown log level %q", s)
}

// For returns the logger of a component, creating it on first use.
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[component]; ok {
		return l
	}
	l := log.New(component)
	l.SetHeader(header)
	l.SetLevel(level)
	if output != nil {
		l.SetOutput(output)
	}
	loggers[component] = l
	return l
}

// SetLevel changes the level of every component logger.
func SetLevel(lvl log.Lvl) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetOutput redirects every component logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}
