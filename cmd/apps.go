package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"AppMovin/models"

	"github.com/spf13/cobra"
)

var (
	uploadName        string
	uploadVersion     string
	uploadDescription string
	uploadIcon        string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the apps in the library",
	Args:    cobra.NoArgs,
	Aliases: []string{"ls"},
	RunE:    runList,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Add an app package to the library",
	Long: `Copy a package into the active store and record its metadata.

Name defaults to the file name and version to 1.0.0.

Examples:
  appmovin upload ./demo.pkg
  appmovin upload ./demo.pkg --name Demo --version 2.1.0 --description "nightly"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var urlCmd = &cobra.Command{
	Use:   "url <id>",
	Short: "Print the download reference of an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runURL,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Remove an app from the library",
	Long:    `Remove an app and its payload. Unknown ids are ignored.`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(listCmd, uploadCmd, urlCmd, deleteCmd)

	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Display name (default: file name)")
	uploadCmd.Flags().StringVar(&uploadVersion, "version", "", "Version label (default: "+models.DefaultVersion+")")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "Free text description")
	uploadCmd.Flags().StringVar(&uploadIcon, "icon", "", "Icon reference")
}

func runList(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}
	apps := library.ListApps(cmd.Context())

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, apps)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tSIZE\tUPLOADED AT")
	for _, app := range apps {
		uploaded := time.UnixMilli(app.UploadedAt).Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", app.ID, app.Name, app.Version, app.Size, uploaded)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d app(s)\n", len(apps))
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	record, err := library.UploadApp(cmd.Context(), args[0], models.UploadMetadata{
		Name:        uploadName,
		Version:     uploadVersion,
		Description: uploadDescription,
		Icon:        uploadIcon,
	})
	if err != nil {
		return fmt.Errorf("failed to upload app: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), record)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded %s %s as %s\n", record.Name, record.Version, record.ID)
	return nil
}

func runURL(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	url, err := library.GetDownloadURL(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	if err := library.DeleteApp(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
	return nil
}
