package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const debugLogRelPath = "arcopilot/debug.log"

type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the default logger instance (singleton-like for convenience)
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Info logs through the default logger.
func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

// Debug logs through the default logger.
func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

// NewAppLogger builds the process logger. Stdout is reserved for JSON output
// and the MCP stream, so nothing here ever writes to it.
func NewAppLogger() *AppLogger {
	debug := os.Getenv("DEBUG") != ""

	if debug {
		// Development: log to a state file, cleared on each run
		w, logPath, err := openDebugLog()
		if err != nil {
			// Fall back to stderr rather than refusing to start
			w, logPath = os.Stderr, "stderr"
		}

		logger := log.NewWithOptions(w, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "arcopilot",
		})
		logger.SetLevel(log.DebugLevel)
		logger.Info("Debug logging enabled", "log_file", logPath)

		return &AppLogger{logger: logger, debug: true}
	}

	// Production: warnings and errors to stderr only
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "arcopilot",
	})
	logger.SetLevel(log.WarnLevel)

	return &AppLogger{logger: logger, debug: false}
}

func openDebugLog() (io.Writer, string, error) {
	logPath, err := xdg.StateFile(debugLogRelPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve debug log path: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create debug log file: %w", err)
	}
	return f, logPath, nil
}

// Log application events
func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// Log a bubbletea message (debug only)
func (al *AppLogger) LogMessage(msg tea.Msg) {
	if !al.debug {
		return
	}

	al.logger.Debug("Message received",
		"type", fmt.Sprintf("%T", msg),
		"content", fmt.Sprintf("%+v", msg),
	)
}

// Log performance metrics
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// Log state transitions for debugging
func (al *AppLogger) LogStateTransition(component, from, to string) {
	if al.debug {
		al.logger.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

// Log user actions for debugging
func (al *AppLogger) LogUserAction(action, context string) {
	if al.debug {
		al.logger.Debug("User action",
			"action", action,
			"context", context,
		)
	}
}

// StandardLog adapts the logger for libraries that expect a *log.Logger,
// such as the mcp-go stdio transport. Lines are logged at error level.
func (al *AppLogger) StandardLog() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// Testing Helper - NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false, // Easier to test without timestamps
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{
		logger: logger,
		debug:  true,
	}, &buf
}
