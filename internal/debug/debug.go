package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/cxxmodel/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// ServeMode is set while stdio belongs to the MCP query server; all debug
// output is suppressed so the protocol stream stays clean.
var ServeMode = false

// Component names used with Log.
const (
	ComponentModel   = "MODEL"
	ComponentBuild   = "BUILD"
	ComponentResolve = "RESOLVE"
	ComponentStore   = "STORE"
	ComponentIndex   = "INDEX"
	ComponentServe   = "SERVE"
)

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetServeMode toggles suppression of debug output for the MCP server.
func SetServeMode(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	ServeMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile starts logging to a timestamped file under the temp
// directory and returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "cxxmodel-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile == nil {
		return nil
	}
	err := debugFile.Close()
	debugFile = nil
	debugOutput = nil
	return err
}

// IsDebugEnabled returns true if debug mode is enabled and the query server
// does not own stdio.
func IsDebugEnabled() bool {
	debugMutex.Lock()
	serving := ServeMode
	debugMutex.Unlock()
	if serving {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	switch os.Getenv("CXXMODEL_DEBUG") {
	case "1", "true":
		return true
	}
	return os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format, args...)
	}
}

// Log writes one component-tagged line. A trailing newline is added when
// the format does not end with one.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	if n := len(format); n == 0 || format[n-1] != '\n' {
		format += "\n"
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogModel logs repository and identity events.
func LogModel(format string, args ...interface{}) {
	Log(ComponentModel, format, args...)
}

// LogBuild logs declaration construction.
func LogBuild(format string, args ...interface{}) {
	Log(ComponentBuild, format, args...)
}

// LogResolve logs type resolution decisions.
func LogResolve(format string, args ...interface{}) {
	Log(ComponentResolve, format, args...)
}

// LogStore logs storage backend activity.
func LogStore(format string, args ...interface{}) {
	Log(ComponentStore, format, args...)
}

// LogIndex logs indexing driver progress.
func LogIndex(format string, args ...interface{}) {
	Log(ComponentIndex, format, args...)
}

// Fatal records a catastrophic message and returns it as an error so the
// caller decides how to stop.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if w := writer(); w != nil && !ServeMode {
		fmt.Fprintf(w, "[FATAL] %s\n", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
