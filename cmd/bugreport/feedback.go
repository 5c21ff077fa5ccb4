package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bugreport/internal/browser"
	"bugreport/internal/commandlog"
	"bugreport/internal/issue"
	"bugreport/internal/sysinfo"
	"bugreport/internal/ux"
)

const thanksMsg = "Thanks for your feedback!"

// runFeedback drives the interactive flow: intro banner, recent-commands
// picker, issue build, browser hand-off.
func runFeedback(cmd *cobra.Command, args []string) error {
	fmt.Printf("\nWe appreciate your feedback!\n\n"+
		"For more information on getting started, visit: %s\n"+
		"If you have questions, visit: %s\n",
		cfg.CLI.GetStartedURL, cfg.CLI.QuestionsURL)

	prefs := ux.NewPreferencesManager(preferencesDir())
	if err := prefs.Load(); err != nil {
		logger.Debug("failed to load preferences", zap.Error(err))
	}
	if !prefs.Get().IntroShown {
		if err := prefs.MarkIntroShown(); err != nil {
			logger.Debug("failed to save preferences", zap.Error(err))
		}
	}

	entries := displayRecentCommands()

	prompter := ux.NewPrompter()
	selected, quit, err := promptIssue(prompter, entries)
	if err != nil {
		if errors.Is(err, ux.ErrNoTTY) {
			return errors.New("this command is interactive, however no tty is available")
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		return err
	}
	if quit {
		return nil
	}

	if err := openIssue(cmd.Context(), selected); err != nil {
		return err
	}

	if err := prefs.RecordIssueFiled(time.Now()); err != nil {
		logger.Debug("failed to save preferences", zap.Error(err))
	}
	fmt.Println(thanksMsg)
	return nil
}

// displayRecentCommands lists and renders recent command logs. A missing
// or empty log directory degrades to the generic-issue flow.
func displayRecentCommands() []*commandlog.File {
	files, err := commandlog.List(cfg.CLI.CommandLogDir, cfg.CLI.Name, time.Now(), logger)
	if err != nil {
		logger.Debug("failed to list command logs", zap.Error(err))
		return nil
	}
	return ux.RenderRecentCommands(os.Stdout, files)
}

// promptIssue asks the user what to file an issue for. The returned file
// is nil for a generic issue; quit means the user backed out.
func promptIssue(prompter *ux.Prompter, entries []*commandlog.File) (*commandlog.File, bool, error) {
	if len(entries) == 0 {
		yes, err := prompter.PromptYesNo()
		if err != nil {
			return nil, false, err
		}
		return nil, !yes, nil
	}

	sel, err := prompter.PromptCommandChoice(len(entries) - 1)
	if err != nil {
		return nil, false, err
	}
	if sel.Quit {
		return nil, true, nil
	}
	return entries[sel.Index], false, nil
}

// openIssue builds the issue for the chosen command and opens the browser.
func openIssue(ctx context.Context, file *commandlog.File) error {
	built, err := buildIssue(ctx, file)
	if err != nil {
		return err
	}

	fmt.Println(built.Prefix)
	logger.Debug("full issue body", zap.String("body", built.Body))

	repoKind := ""
	prettyURL := cfg.Issues.PrettyURL
	if built.IsPlugin {
		repoKind = "plugins "
		prettyURL = cfg.Plugins.PrettyURL
	}
	fmt.Printf("You can also file the issue in the %srepository by opening %s in the browser.\n", repoKind, prettyURL)

	opener := browser.NewSystemOpener(logger)
	if err := opener.OpenURL(built.URL); err != nil {
		logger.Warn("could not open a browser", zap.Error(err))
		fmt.Printf("Open this link to file the issue:\n%s\n", built.URL)
	}
	return nil
}

// buildIssue assembles the issue body and URL for a command log file
// (nil for a generic issue).
func buildIssue(ctx context.Context, file *commandlog.File) (issue.Issue, error) {
	env := sysinfo.Collect(sysinfo.CLIVersionSummary(ctx, cfg.CLI.Name, logger), logger)
	builder := issue.NewBuilder(cfg, env, logger)
	return builder.Build(file)
}

// preferencesDir is where bugreport keeps its own state.
func preferencesDir() string {
	if configPath != "" {
		return filepath.Dir(configPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bugreport")
}
