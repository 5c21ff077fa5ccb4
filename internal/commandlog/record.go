// Package commandlog reads and writes per-invocation command log files.
//
// A command log file is named <date>.<time>.<command>.<pid>.log and holds
// pipe-delimited records:
//
//	CMD-LOG-LINE-BEGIN <pid> | <created> | <LEVEL> | <logger> | <message>
//
// Lines without the prefix are continuations of the previous record's
// message.
package commandlog

import (
	"strconv"
	"strings"
)

const (
	// LinePrefix marks the start of a new record in a command log file.
	LinePrefix = "CMD-LOG-LINE-BEGIN "

	// UnknownCommandToken is the filename token used when the command
	// name could not be determined at log time.
	UnknownCommandToken = "unknown_command"

	// UnknownCommand is the display name for such commands.
	UnknownCommand = "Unknown"
)

// Record is one structured entry in a command log file.
type Record struct {
	PID     int
	Created string // raw timestamp field, not interpreted
	Level   string
	Logger  string
	Message string
}

// ParseRecordLine extracts a record from a single log line. It reports
// false when the line does not open a new record, in which case the caller
// must treat the line as a continuation of the previous record's message.
//
// A line opens a record only when it carries the line prefix, splits into
// exactly five pipe-delimited fields, and its leading field matches the
// expected pid.
func ParseRecordLine(line string, pid int) (Record, bool) {
	if !strings.HasPrefix(line, LinePrefix) {
		return Record{}, false
	}

	parts := strings.SplitN(line[len(LinePrefix):], "|", 5)
	if len(parts) != 5 {
		return Record{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	linePID, err := strconv.Atoi(parts[0])
	if err != nil || linePID != pid {
		return Record{}, false
	}

	msg := parts[4]
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	return Record{
		PID:     linePID,
		Created: parts[1],
		Level:   parts[2],
		Logger:  parts[3],
		Message: msg,
	}, true
}

// parseRecords groups the lines of a log file into records, folding
// continuation lines into the preceding record's message.
func parseRecords(lines []string, pid int) []Record {
	var records []Record
	var prev *Record

	for _, line := range lines {
		rec, ok := ParseRecordLine(line, pid)
		switch {
		case ok:
			if prev != nil {
				records = append(records, *prev)
			}
			prev = &rec
		case prev != nil:
			prev.Message += line
		}
	}
	if prev != nil {
		records = append(records, *prev)
	}
	return records
}
