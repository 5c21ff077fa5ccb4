package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bugreport/internal/commandlog"
)

// RecentDisplayLimit caps how many recent commands the picker shows.
const RecentDisplayLimit = 9

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// RenderRecentCommands prints the numbered recent-commands table. Entry 0
// is always the generic-issue option; the returned slice aligns with the
// printed indexes (index 0 is nil).
func RenderRecentCommands(w io.Writer, files []*commandlog.File) []*commandlog.File {
	if len(files) == 0 {
		return nil
	}
	if len(files) > RecentDisplayLimit {
		files = files[len(files)-RecentDisplayLimit:]
	}

	var nameLen, statusLen, timeLen int
	for _, f := range files {
		nameLen = max(nameLen, len(f.CommandName()))
		statusLen = max(statusLen, len(f.Status()))
		timeLen = max(timeLen, len(f.TimeString()))
	}

	fmt.Fprintln(w, headerStyle.Render("Recent commands:"))
	fmt.Fprintln(w)

	entries := make([]*commandlog.File, 1, len(files)+1)
	entries = append(entries, files...)
	for i, f := range entries {
		if f == nil {
			fmt.Fprintf(w, "   [%d] %s\n", i, "create a generic issue.")
			continue
		}
		status := pad(f.Status()+".", statusLen+1)
		switch f.Status() {
		case "SUCCESS":
			status = successStyle.Render(status)
		case "FAILURE":
			status = failureStyle.Render(status)
		}
		fmt.Fprintf(w, "   [%d] %s: %s %s\n", i,
			pad(f.CommandName(), nameLen),
			status,
			pad(f.TimeString()+".", timeLen+1))
	}

	return entries
}

func pad(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
