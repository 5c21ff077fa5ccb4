// Package sysinfo collects the environment summary embedded in bug
// reports: platform, runtime, parent shell and tool version.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// Summary is the environment block of an issue body.
type Summary struct {
	Platform   string
	GoVersion  string
	Shell      string
	CLIVersion string
}

// Collect gathers the environment summary. Every probe is best effort;
// failures leave the field empty rather than erroring.
func Collect(cliVersion string, logger *zap.Logger) Summary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Summary{
		Platform:   platformString(logger),
		GoVersion:  fmt.Sprintf("Go %s", strings.TrimPrefix(runtime.Version(), "go")),
		Shell:      fmt.Sprintf("Shell: %s", parentShellName(logger)),
		CLIVersion: cliVersion,
	}
}

// platformString renders OS, architecture and kernel in one line.
func platformString(logger *zap.Logger) string {
	info, err := host.Info()
	if err != nil {
		logger.Debug("failed to read host info", zap.Error(err))
		return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s-%s-%s-%s", info.Platform, info.PlatformVersion, runtime.GOARCH, info.KernelVersion)
}

// parentShellName walks up from this process to name the launching shell.
// PowerShell starts commands through cmd.exe, so when the grandparent is
// powershell that name wins over cmd.
func parentShellName(logger *zap.Logger) string {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Debug("failed to inspect own process", zap.Error(err))
		return ""
	}

	parent, err := proc.Parent()
	if err != nil || parent == nil {
		logger.Debug("failed to resolve parent process", zap.Error(err))
		return ""
	}

	parentName, err := parent.Name()
	if err != nil {
		logger.Debug("failed to name parent process", zap.Error(err))
		return ""
	}

	if grandparent, err := parent.Parent(); err == nil && grandparent != nil {
		if name, err := grandparent.Name(); err == nil &&
			strings.HasPrefix(strings.ToLower(name), "powershell") {
			return name
		}
	}

	return parentName
}

// CLIVersionSummary runs `<cli> --version` and condenses its output.
// Best effort: an unrunnable CLI yields an empty summary.
func CLIVersionSummary(ctx context.Context, cliName string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, cliName, "--version").Output()
	if err != nil {
		logger.Debug("failed to run cli --version", zap.String("cli", cliName), zap.Error(err))
		return ""
	}
	return CondenseVersionOutput(cliName, string(out))
}

// CondenseVersionOutput reduces a CLI's full --version output to the
// lines worth embedding in an issue: the product lines and, when present,
// the plugin block up to (not including) directory noise or the legal
// footer. Runs of whitespace collapse to single spaces.
func CondenseVersionOutput(cliName, versionOutput string) string {
	lines := strings.Split(versionOutput, "\n")

	var newLines []string
	extLine, legalLine := -1, -1
	for i, line := range lines {
		if strings.HasPrefix(line, cliName) {
			newLines = append(newLines, strings.Join(strings.Fields(line), " "))
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "plugins:") {
			extLine = i
			continue
		}
		if strings.Contains(lower, "legal") && strings.Contains(lower, "docs") && strings.Contains(lower, "info") {
			legalLine = i
			break
		}
	}

	newLines = append(newLines, "")

	if extLine > 0 && extLine < legalLine {
		for i := extLine; i < legalLine; i++ {
			lower := strings.ToLower(lines[i])
			if strings.Contains(lower, "install location") || strings.Contains(lower, "plugins directory") {
				break
			}
			newLines = append(newLines, strings.Join(strings.Fields(lines[i]), " "))
		}
	}

	return strings.Join(newLines, "\n")
}
