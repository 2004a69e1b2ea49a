package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for phishscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishscan",
		Short: "Phishing URL detector",
		Long: `phishscan decides whether a URL is a phishing attempt.

Every URL goes through four stages and the first stage that reaches a
verdict wins:
  1. resolve     follow redirects to the final URL
  2. denylist    compare the final domain with known phishing domains
  3. heuristic   look for suspicious words such as "login" or "verify"
  4. classifier  ask a Naive Bayes model trained on a labeled corpus

URLs that cannot be resolved are reported as not phishing unless
--failure-policy closed is set.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
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
