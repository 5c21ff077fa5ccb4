package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bugreport/internal/repository"
)

var (
	repoID   string
	repoName string
	repoURL  string
)

// repoCmd manages the plugin repository index
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the plugin repository index used for issue routing",
}

// repoSetCmd upserts a repository record
var repoSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a repository entry",
	Long: `Upserts a repository record in the local index. Without --id a new record
is created; with --id the record holding that id is replaced. Plugin bug
reports are routed to the entry matching the plugin's name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := repository.OpenIndex(cfg.Plugins.IndexPath)
		if err != nil {
			return err
		}

		req := repository.UpsertRequest{
			Properties: &repository.UpsertRequestProperties{Name: &repoName},
		}
		if repoID != "" {
			req.Properties.ID = &repoID
		}
		if repoURL != "" {
			req.URL = &repoURL
		}

		rec, err := idx.Upsert(req)
		if err != nil {
			return err
		}
		if err := idx.Save(); err != nil {
			return err
		}

		fmt.Printf("Repository %q saved (id %s)\n", rec.Name, rec.ID)
		return nil
	},
}

// repoListCmd shows the index contents
var repoListCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Show the repository entry for a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := repository.OpenIndex(cfg.Plugins.IndexPath)
		if err != nil {
			return err
		}
		rec, ok := idx.Resolve(args[0])
		if !ok {
			return fmt.Errorf("no repository entry for %q", args[0])
		}
		fmt.Printf("%s\t%s\t%s\n", rec.ID, rec.Name, rec.URL)
		return nil
	},
}

func init() {
	repoSetCmd.Flags().StringVar(&repoID, "id", "", "Repository id (empty: create)")
	repoSetCmd.Flags().StringVar(&repoName, "name", "", "Repository name (required)")
	repoSetCmd.Flags().StringVar(&repoURL, "url", "", "Repository project URL")
	_ = repoSetCmd.MarkFlagRequired("name")

	repoCmd.AddCommand(repoSetCmd)
	repoCmd.AddCommand(repoListCmd)
}
