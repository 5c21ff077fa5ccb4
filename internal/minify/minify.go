// Package minify compresses error output to fit a character budget.
//
// Strategies are applied in order, each one only when the previous output
// still exceeds the budget: shorten file paths to 5 segments, then to 4,
// collapse nested error chains, and finally remove lines from the middle.
// The pipeline is monotonic; output length never grows between attempts.
package minify

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var fileRe = regexp.MustCompile(`File "(.*)"`)

const continuationStr = "...\n"

// ErrorMinifier joins an ordered list of error strings and lossily
// compresses the result until it fits the configured capacity.
type ErrorMinifier struct {
	errors   []string
	capacity int
	hasCap   bool
	minified string
	log      *zap.Logger
}

// New creates a minifier over the given error strings. Until SetCapacity
// is called the output is the plain join.
func New(errors []string, logger *zap.Logger) *ErrorMinifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorMinifier{
		errors:   errors,
		minified: strings.Join(errors, "\n"),
		log:      logger,
	}
}

// SetCapacity sets the character budget and recomputes the minified form.
func (m *ErrorMinifier) SetCapacity(capacity int) {
	m.log.Debug("capacity for error string", zap.Int("capacity", capacity))
	m.capacity = capacity
	m.hasCap = true
	m.minified = m.minifiedErrors()
}

func (m *ErrorMinifier) minifiedErrors() string {
	errors := make([]string, len(m.errors))
	copy(errors, m.errors)

	joined := strings.Join(errors, "\n")
	if !m.hasCap {
		return joined
	}
	if len(errors) == 0 {
		return ""
	}
	if len(joined) <= m.capacity {
		return joined
	}

	// shorten file names and try again
	for i, e := range errors {
		errors[i] = shortenFileNames(e, 5)
	}
	joined = strings.Join(errors, "\n")
	if len(joined) <= m.capacity {
		return joined
	}

	// shorten file names further and try again
	for i, e := range errors {
		errors[i] = shortenFileNames(e, 4)
	}
	joined = strings.Join(errors, "\n")
	if len(joined) <= m.capacity {
		return joined
	}

	// keep only the first error of a nested chain
	for i, e := range errors {
		errors[i] = removeNestedErrors(e)
	}
	joined = strings.Join(errors, "\n")
	if len(joined) <= m.capacity {
		return joined
	}

	// last resort: keep removing middle lines
	for len(joined) > m.capacity {
		shrunk := removeMiddleLines(joined)
		if len(shrunk) >= len(joined) {
			// no further progress possible (e.g. a single very long line);
			// hard truncate rather than loop
			if m.capacity < 0 {
				return ""
			}
			cut := m.capacity
			for cut > 0 && !utf8.RuneStart(joined[cut]) {
				cut--
			}
			return joined[:cut]
		}
		joined = shrunk
	}

	return joined
}

// shortenFileNames rewrites traceback frame lines so embedded file paths
// keep only the trailing levels path segments. The long-form marker
// `, line` becomes `, ln` on first shortening; already shortened frames
// are shortened again in place. "Here is the traceback" banner lines are
// dropped.
func shortenFileNames(errorString string, levels int) string {
	var newLines []string
	for _, line := range strings.Split(errorString, "\n") {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "File") && strings.Contains(line, ", line"):
			parts := strings.Split(line, ",")
			if match := fileRe.FindStringSubmatch(parts[0]); match != nil {
				parts[0] = shortenFileName(match[1], levels)
				if len(parts) > 1 {
					parts[1] = strings.Replace(parts[1], "line", "ln", 1)
				}
			}
			line = strings.Join(parts, ",")
		case isFrameLine(line):
			parts := strings.Split(line, ",")
			parts[0] = shortenFileName(parts[0], levels)
			line = strings.Join(parts, ",")
		case strings.Contains(strings.ToLower(line), "here is the traceback"):
			continue
		}
		newLines = append(newLines, line)
	}
	return strings.Join(newLines, "\n")
}

// isFrameLine recognizes an already shortened traceback frame.
func isFrameLine(line string) bool {
	return strings.Contains(line, ", ln") && strings.Contains(line, ".")
}

// shortenFileName keeps the trailing levels segments of a path.
func shortenFileName(fileName string, levels int) string {
	if levels <= 0 {
		return fileName
	}
	newName := filepath.Base(fileName)
	fileName = filepath.Dir(fileName)
	for i := 0; i < levels-1; i++ {
		newName = filepath.Join(filepath.Base(fileName), newName)
		fileName = filepath.Dir(fileName)
	}
	return newName
}

// removeNestedErrors collapses everything between the nested-error marker
// and the final lines to a single ellipsis marker.
func removeNestedErrors(errorString string) string {
	lines := strings.Split(errorString, "\n")

	idx := len(lines) - 1
	for i, line := range lines {
		if strings.Contains(line, "During handling of the above exception") {
			idx = i
			break
		}
	}
	if idx == len(lines)-1 {
		return errorString
	}

	kept := append([]string{}, lines[:idx]...)
	kept = append(kept, continuationStr)
	kept = append(kept, lines[len(lines)-3:]...)
	return strings.Join(kept, "\n")
}

// removeMiddleLines drops a few lines around the middle of the string,
// leaving an ellipsis marker, preferring to cut at a frame line.
func removeMiddleLines(errorString string) string {
	errorString = strings.ReplaceAll(errorString, continuationStr, "")
	lines := strings.Split(errorString, "\n")
	if len(lines) < 2 {
		return errorString
	}

	mid := len(lines)/2 + 1
	if mid >= len(lines) {
		mid = len(lines) - 1
	}
	if mid >= 0 && mid < len(lines) && !isFrameLine(lines[mid]) {
		mid--
	}

	var newLines []string
	for i, line := range lines {
		if i == mid {
			newLines = append(newLines, strings.TrimSpace(continuationStr))
		}
		if i >= mid && i < mid+4 {
			continue
		}
		newLines = append(newLines, line)
	}
	return strings.Join(newLines, "\n")
}

// String renders the minified errors as a fenced code block, or "" when
// there is nothing to show.
func (m *ErrorMinifier) String() string {
	if m.minified == "" {
		return ""
	}
	return "```\n" + strings.TrimSpace(m.minified) + "\n```"
}
