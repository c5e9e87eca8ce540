package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "rentctl",
		Short:        "Rental manager operations tool",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config (defaults to CONFIG_PATH)")

	rootCmd.AddCommand(
		migrateCmd(),
		pendingCmd(),
		applyCmd(),
		exportHistoryCmd(),
		remindCmd(),
		tokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
