package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mfascan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfascan",
		Short: "Audit web pages for made-for-advertising characteristics",
		Long: `mfascan audits web pages for made-for-advertising (MFA) characteristics.
It analyzes signal bundles captured from rendered pages and scores ad
placement abuse, viewability manipulation, scroll traps, ad refresh
behavior, traffic arbitrage, and ad server delivery anomalies.

Audit results are stored locally so risk can be tracked over time and
compared between audits.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
