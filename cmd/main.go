package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "contentflow",
	Short: "Write, schedule and publish LinkedIn posts from the terminal",
	Long: "contentflow generates LinkedIn posts with the content workflow, keeps drafts, " +
		"and publishes or schedules them through your connected LinkedIn account.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", api.Describe(err))
		os.Exit(1)
	}
}
