package main

import (
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/contentscore/logging"
)

var (
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "contentscore",
	Short: "Score content for SEO and readability",
	Long: `contentscore runs the keyword, readability and SEO checks over a piece of
HTML or plain text and prints the findings and scores as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logging.Setup(true, level)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
