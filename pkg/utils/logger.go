package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger for debug messages
var (
	mu        sync.Mutex
	isVerbose = false
	logOut    io.Writer
	logFile   *os.File
)

// Log prints debug messages to the log output if verbose mode is enabled
func Log(text string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if isVerbose && logOut != nil {
		write("DEBUG", text, args...)
	}
}

// Error records a failure. Errors are written whenever an output is
// configured, verbose or not.
func Error(text string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if logOut != nil {
		write("ERROR", text, args...)
	}
}

func write(level, text string, args ...interface{}) {
	fmt.Fprintf(logOut, "%s %-5s %s\n", time.Now().Format("15:04:05.000"), level, fmt.Sprintf(text, args...))
}

// LogFilePath returns the path of today's log file
func LogFilePath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("taskdeck_%s.log", time.Now().Format("2006-01-02")))
}

// InitLogger initializes the logging system. Errors always go to the log
// file; debug messages only when verbose is set.
func InitLogger(verbose bool) {
	f, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log file: %v\n", err)
		return
	}

	mu.Lock()
	isVerbose = verbose
	logFile = f
	logOut = f
	mu.Unlock()

	Log("Verbose logging enabled")
}

// InitLoggerTo sends log output to w instead of a file
func InitLoggerTo(w io.Writer, verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	isVerbose = verbose
	logOut = w
}

// CloseLogger closes the log file if it's open
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logOut = nil
}
