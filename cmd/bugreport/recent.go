package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bugreport/internal/commandlog"
	"bugreport/internal/ux"
)

var printIssue bool

// recentCmd lists recent command logs without prompting
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent commands found in the command log directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := commandlog.List(cfg.CLI.CommandLogDir, cfg.CLI.Name, time.Now(), logger)
		if err != nil {
			return err
		}
		if entries := ux.RenderRecentCommands(os.Stdout, files); entries == nil {
			fmt.Println("No recent commands found.")
		}
		return nil
	},
}

// issueCmd builds an issue non-interactively
var issueCmd = &cobra.Command{
	Use:   "issue [n]",
	Short: "Build a bug report for recent command n (0 or no argument: generic issue)",
	Long: `Builds the prefilled issue for the n-th entry of 'bugreport recent' and
opens the browser on it. With --print, the issue body and URL are written
to stdout instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var file *commandlog.File
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid command number %q", args[0])
			}
			if n > 0 {
				files, err := commandlog.List(cfg.CLI.CommandLogDir, cfg.CLI.Name, time.Now(), logger)
				if err != nil {
					return err
				}
				if len(files) > ux.RecentDisplayLimit {
					files = files[len(files)-ux.RecentDisplayLimit:]
				}
				if n > len(files) {
					return fmt.Errorf("no recent command numbered %d (have %d)", n, len(files))
				}
				file = files[n-1]
			}
		}

		if !printIssue {
			return openIssue(cmd.Context(), file)
		}

		built, err := buildIssue(cmd.Context(), file)
		if err != nil {
			return err
		}
		fmt.Println(built.Body)
		fmt.Println(built.URL)
		return nil
	},
}

func init() {
	issueCmd.Flags().BoolVar(&printIssue, "print", false, "Print the issue body and URL instead of opening a browser")
}
