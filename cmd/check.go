package cmd

import (
	"fmt"

	jobs "AppMovin/job"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the local index with the storage directory",
	Long: `Report index entries whose package file is gone and files in the
storage directory that no entry references. Nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, local, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	report, err := jobs.RunAudit(cmd.Context(), local)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, report)
	}

	fmt.Fprintf(out, "Storage: %s\nIndexed: %d\n", report.StoragePath, report.Indexed)
	if report.Clean() {
		fmt.Fprintln(out, "✓ No drift found")
		return nil
	}
	for _, id := range report.Missing {
		fmt.Fprintf(out, "missing payload: %s\n", id)
	}
	for _, name := range report.Stray {
		fmt.Fprintf(out, "stray file: %s\n", name)
	}
	return nil
}
