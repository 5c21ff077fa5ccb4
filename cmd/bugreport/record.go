package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bugreport/internal/commandlog"
)

// recordCmd runs a command and captures a conforming command log file
var recordCmd = &cobra.Command{
	Use:   "record -- <command> [args...]",
	Short: "Run a command and record a command log file for it",
	Long: `Runs the given command and writes a command log file into the command log
directory, in the same format the CLI's own logger uses. The recorded run
then shows up in 'bugreport recent' like any other command.

Argument values are redacted in the log; only flags and the command path
are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
		child.Stdout = os.Stdout
		child.Stdin = os.Stdin

		stderr, err := child.StderrPipe()
		if err != nil {
			return fmt.Errorf("failed to capture stderr: %w", err)
		}

		start := time.Now()
		if err := child.Start(); err != nil {
			return fmt.Errorf("failed to start command: %w", err)
		}

		command, cmdArgs := splitCommandWords(args)
		writer, err := commandlog.NewWriter(cfg.CLI.CommandLogDir, command, child.Process.Pid, start)
		if err != nil {
			return err
		}

		writer.CommandArgs(command, cmdArgs)
		writer.InvocationID()

		if err := mirrorStderr(stderr, os.Stderr, writer); err != nil {
			logger.Debug("stderr capture stopped early", zap.Error(err))
		}

		exitCode := 0
		if err := child.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				exitCode = 1
				writer.Error("cli.command", "%v", err)
			}
		}

		if err := writer.Close(exitCode); err != nil {
			logger.Debug("failed to close command log", zap.Error(err))
		}
		logger.Debug("recorded command log", zap.String("path", writer.Path()), zap.Int("exit_code", exitCode))

		if exitCode != 0 {
			return fmt.Errorf("command exited with code %d", exitCode)
		}
		return nil
	},
}

// mirrorStderr copies the child's stderr to out while logging each line
// as an error record. Lines longer than 1 MB stop the capture; the
// scanner error is returned so the caller can note the early stop.
func mirrorStderr(r io.Reader, out io.Writer, writer *commandlog.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(out, line)
		writer.Error("cli.stderr", "%s", line)
	}
	return scanner.Err()
}

// splitCommandWords extracts the subcommand path from the argv after the
// binary: the leading run of command-looking tokens names the log file,
// everything after the binary is recorded (redacted) as the args line.
func splitCommandWords(argv []string) (string, []string) {
	var words []string
	for _, tok := range argv[1:] {
		if strings.HasPrefix(tok, "-") || !isCommandWord(tok) {
			break
		}
		words = append(words, tok)
	}
	return strings.Join(words, " "), argv[1:]
}

// isCommandWord reports whether a token looks like a subcommand rather
// than a positional value.
func isCommandWord(tok string) bool {
	for _, r := range tok {
		if !(r >= 'a' && r <= 'z' || r == '-' || r == '_') {
			return false
		}
	}
	return tok != ""
}
