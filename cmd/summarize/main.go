// Command summarize prints the compliance summary of a client CSV export:
//
//	go run ./cmd/summarize --csv mock_data.csv --as-of 2025-10-12 --json
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "summarize",
		Short:         "Summarize compliance exposure of a client portfolio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.csvPath, "csv", "mock_data.csv", "client CSV with a header row")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "reference date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")
	return cmd
}
