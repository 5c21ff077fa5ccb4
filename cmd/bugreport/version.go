package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print bugreport version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bugreport %s\n", version)
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					fmt.Printf("commit: %s\n", setting.Value)
				}
			}
		}
		fmt.Printf("runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
