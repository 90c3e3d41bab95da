package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the contentflow client version. Use 'contentflow status' to compare it with what the server supports.",
	Run: func(cmd *cobra.Command, args []string) {
		defer func() { versionVerbose = false }()

		cmd.Printf("contentflow version %s\n", version)
		if versionVerbose {
			cmd.Printf("go: %s\nplatform: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Also print the Go toolchain and platform")
	rootCmd.AddCommand(versionCmd)
}
