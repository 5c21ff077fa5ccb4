package commandlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer records one command invocation into a log file that follows the
// command log conventions, so recorded runs can be picked up by the
// feedback flow like any other command log.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	pid  int
	path string
}

// NewWriter creates the log file for a command started at start. The
// command is the space-separated command path (no arguments); an empty
// command is recorded under the unknown-command token.
func NewWriter(dir, command string, pid int, start time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create command log directory: %w", err)
	}

	token := strings.ReplaceAll(strings.TrimSpace(command), " ", "_")
	if token == "" {
		token = UnknownCommandToken
	}

	name := fmt.Sprintf("%s.%s.%d.log", start.Format("2006-01-02.15-04-05"), token, pid)
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create command log file: %w", err)
	}

	return &Writer{file: file, pid: pid, path: path}, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// write emits one record. Multi-line messages put the prefix on the first
// line only; the remaining lines are continuations.
func (w *Writer) write(level, logger, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return
	}

	created := fmt.Sprintf("%.6f", float64(time.Now().UnixNano())/1e9)
	msg = strings.TrimRight(msg, "\n")

	lines := strings.Split(msg, "\n")
	fmt.Fprintf(w.file, "%s%d | %s | %s | %s | %s\n", LinePrefix, w.pid, created, level, logger, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintln(w.file, line)
	}
}

// Info writes an info-level record.
func (w *Writer) Info(logger, format string, args ...interface{}) {
	w.write("INFO", logger, fmt.Sprintf(format, args...))
}

// Error writes an error-level record.
func (w *Writer) Error(logger, format string, args ...interface{}) {
	w.write("ERROR", logger, fmt.Sprintf(format, args...))
}

// CommandArgs writes the opening record. Argument values may contain
// secrets, so everything that is not a flag or part of the command path
// is redacted to {}.
func (w *Writer) CommandArgs(command string, args []string) {
	w.Info("cli.command", "command args: %s", strings.Join(RedactArgs(command, args), " "))
}

// InvocationID tags the run with a fresh correlation id.
func (w *Writer) InvocationID() string {
	id := uuid.NewString()
	w.Info("cli.command", "invocation id: %s", id)
	return id
}

// Close writes the exit-code record and closes the file.
func (w *Writer) Close(exitCode int) error {
	w.Info("cli.command", "exit code: %d", exitCode)

	w.mu.Lock()
	defer w.mu.Unlock()
	file := w.file
	w.file = nil
	if file == nil {
		return nil
	}
	return file.Close()
}

// RedactArgs keeps flags and the leading command words, replacing every
// other token with {}.
func RedactArgs(command string, args []string) []string {
	commandWords := strings.Fields(command)

	redacted := make([]string, 0, len(args))
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-"):
			// flag names are safe; values follow as separate tokens
			if idx := strings.Index(arg, "="); idx >= 0 {
				arg = arg[:idx+1] + "{}"
			}
			redacted = append(redacted, arg)
		case i < len(commandWords) && arg == commandWords[i]:
			redacted = append(redacted, arg)
		default:
			redacted = append(redacted, "{}")
		}
	}
	return redacted
}
