package commandlog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	extNamePrefix = "extension name:"
	extVersPrefix = "extension version:"

	oneMinInSecs = 60
	oneHrInSecs  = 3600
)

// Metadata is derived from a command log file's name alone.
type Metadata struct {
	Command    string  // display command, e.g. "avq storage create", or Unknown
	SecondsAgo float64 // age relative to the File's reference time
	Path       string
	PID        int
}

// Data is extracted from a command log file's records.
type Data struct {
	// Success is nil while the command is still running (no exit record).
	Success          *bool
	Errors           []string
	ExtensionName    string
	ExtensionVersion string
	CommandArgs      string

	// hasRecords distinguishes a file with records that carry none of
	// the recognized fields from a file with no records at all.
	hasRecords bool
}

// File is a single command log file. Parsing of the record body is lazy;
// metadata comes from the file name.
type File struct {
	path    string
	cliName string
	now     time.Time
	log     *zap.Logger

	meta        Metadata
	data        *Data
	commandName string
}

// New opens a command log file. The name must follow the
// <date>.<time>.<command>.<pid>.log convention; files that do not are
// rejected so the caller can skip them.
func New(path, cliName string, now time.Time, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat command log: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is not a file", path)
	}
	if now.IsZero() {
		now = time.Now()
	}

	meta, err := parseMetadata(path, cliName, now)
	if err != nil {
		return nil, err
	}

	return &File{
		path:    path,
		cliName: cliName,
		now:     now,
		log:     logger,
		meta:    meta,
	}, nil
}

// parseMetadata derives metadata from the file name.
func parseMetadata(path, cliName string, now time.Time) (Metadata, error) {
	name := filepath.Base(path)
	parts := strings.Split(name, ".")
	if len(parts) != 5 {
		return Metadata{}, fmt.Errorf("unrecognized command log file name %q", name)
	}
	date, clock, command, pidStr := parts[0], parts[1], parts[2], parts[3]

	stamp, err := time.ParseInLocation("2006-01-02-15-04-05", date+"-"+clock, now.Location())
	if err != nil {
		return Metadata{}, fmt.Errorf("unrecognized timestamp in command log file name %q: %w", name, err)
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return Metadata{}, fmt.Errorf("unrecognized pid in command log file name %q: %w", name, err)
	}

	display := UnknownCommand
	if command != UnknownCommandToken {
		display = cliName + " " + strings.ReplaceAll(command, "_", " ")
	}

	return Metadata{
		Command:    display,
		SecondsAgo: now.Sub(stamp).Seconds(),
		Path:       path,
		PID:        pid,
	}, nil
}

// Metadata returns the metadata derived from the file name.
func (f *File) Metadata() Metadata {
	return f.meta
}

// Data parses the record body on first use. Parse failures degrade to an
// empty Data; they never fail the caller.
func (f *File) Data() *Data {
	if f.data == nil {
		f.data = f.parseData()
	}
	return f.data
}

func (f *File) parseData() *Data {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		f.log.Debug("failed to open command log file", zap.String("path", f.path), zap.Error(err))
		return &Data{}
	}

	// Keep line endings: continuation lines are appended verbatim.
	lines := strings.SplitAfter(string(raw), "\n")
	records := parseRecords(lines, f.meta.PID)
	if len(records) == 0 {
		f.log.Debug("no command log records found", zap.String("path", f.path))
		return &Data{}
	}

	data := &Data{hasRecords: true}

	// The last record should carry the exit code.
	if status := strings.TrimSpace(records[len(records)-1].Message); strings.HasPrefix(status, "exit code") {
		if idx := strings.Index(status, ":"); idx >= 0 {
			if code, err := strconv.Atoi(strings.TrimSpace(status[idx+1:])); err == nil {
				ok := code == 0
				data.Success = &ok
			} else {
				f.log.Debug("couldn't extract exit code from command log", zap.String("path", f.path))
			}
		}
	}

	// Any error record marks the command failed. Info records may carry
	// extension identification.
	for _, rec := range records {
		switch strings.ToLower(rec.Level) {
		case "error":
			failed := false
			data.Success = &failed
			data.Errors = append(data.Errors, rec.Message)
		case "info":
			msg := strings.TrimSpace(rec.Message)
			if strings.HasPrefix(msg, extNamePrefix) {
				data.ExtensionName = strings.TrimSpace(msg[len(extNamePrefix):])
			} else if strings.HasPrefix(msg, extVersPrefix) {
				data.ExtensionVersion = strings.TrimSpace(msg[len(extVersPrefix):])
			}
		}
	}

	// The first record should carry the redacted command args.
	first := strings.TrimSpace(records[0].Message)
	if idx := strings.Index(first, ":"); strings.HasPrefix(strings.ToLower(first), "command args:") && idx >= 0 {
		data.CommandArgs = strings.TrimSpace(first[idx+1:])
	} else {
		f.log.Debug("couldn't get command args from command log", zap.String("path", f.path))
	}

	return data
}

// CommandName returns the display name for the logged command, with a
// "--help" suffix when the invocation asked for help and an argument
// summary when the command itself is unknown.
func (f *File) CommandName() string {
	if f.commandName != "" {
		return f.commandName
	}

	args := f.Data().CommandArgs

	if f.meta.Command != UnknownCommand {
		f.commandName = f.meta.Command
		if strings.Contains(args, "-h") || strings.Contains(args, "--help") {
			f.commandName += " --help"
		}
		return f.commandName
	}

	f.commandName = UnknownCommand
	if args != "" {
		summary := args
		if len(summary) >= 16 {
			summary = summary[:11] + " ..."
		}
		summary = strings.NewReplacer("=", "", "{", "", "}", "").Replace(summary)
		f.commandName = fmt.Sprintf("%s (%s) ", f.commandName, summary)
	}
	return f.commandName
}

// Status reports RUNNING, SUCCESS or FAILURE, or "" when the file carried
// no records.
func (f *File) Status() string {
	data := f.Data()
	if !data.hasRecords {
		return ""
	}
	if data.Success == nil {
		return "RUNNING"
	}
	if *data.Success {
		return "SUCCESS"
	}
	return "FAILURE"
}

// Failed reports whether the logged command is known to have failed.
func (f *File) Failed() bool {
	data := f.Data()
	return data.Success != nil && !*data.Success
}

// TimeString renders the command's age, coarsest unit first.
func (f *File) TimeString() string {
	total := f.meta.SecondsAgo

	days := int(total / (24 * oneHrInSecs))
	switch {
	case days > 0:
		return fmt.Sprintf("Ran: %d days ago", days)
	case total > oneHrInSecs:
		hrs := int(total / oneHrInSecs)
		mins := int(math.Floor(math.Mod(total, oneHrInSecs) / oneMinInSecs))
		return fmt.Sprintf("Ran: %d hrs %02d mins ago", hrs, mins)
	case total > oneMinInSecs:
		return fmt.Sprintf("Ran: %d mins ago", int(math.Floor(total/oneMinInSecs)))
	default:
		return fmt.Sprintf("Ran: %d secs ago", int(math.Floor(total)))
	}
}

// List loads every well-formed command log file in dir, oldest first.
// Malformed files are skipped with a debug note.
func List(dir, cliName string, now time.Time, logger *zap.Logger) ([]*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read command log directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var files []*File
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := New(path, cliName, now, logger)
		if err != nil {
			logger.Debug("invalid command log file", zap.String("path", path), zap.Error(err))
			continue
		}
		files = append(files, f)
	}
	return files, nil
}
