package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDir string
	var logLevel string

	ctx := newCommandContext(&configDir, &logLevel)

	rootCmd := &cobra.Command{
		Use:           "bookctl",
		Short:         "Book factory command line tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "", "Directory containing config.yaml (defaults to $BOOK_FACTORY_CONFIG_DIR or ./configs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newBooksCommand(ctx))
	rootCmd.AddCommand(newChaptersCommand(ctx))

	return rootCmd
}
