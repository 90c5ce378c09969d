package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var moveExisting bool

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show or change the local storage directory",
	Args:  cobra.NoArgs,
	RunE:  runPathGet,
}

var pathGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the local storage directory",
	Args:  cobra.NoArgs,
	RunE:  runPathGet,
}

var pathSetCmd = &cobra.Command{
	Use:   "set [dir]",
	Short: "Change the local storage directory",
	Long: `Switch the managed directory. With --move, stored packages are moved
file by file; a failure part way keeps the old directory active.

Without a directory argument you are asked for one on the terminal.

Examples:
  appmovin path set /mnt/apps --move`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPathSet,
}

func init() {
	rootCmd.AddCommand(pathCmd)
	pathCmd.AddCommand(pathGetCmd, pathSetCmd)

	pathSetCmd.Flags().BoolVar(&moveExisting, "move", false, "Move existing packages to the new directory")
}

func runPathGet(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	path := library.StoragePath()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]*string{"path": path})
	}
	if path == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Active storage is %s; no local directory in use\n", library.Backend().Name())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), *path)
	return nil
}

func runPathSet(cmd *cobra.Command, args []string) error {
	library, _, err := newLibrary(cmd.Context())
	if err != nil {
		return err
	}

	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		picked, err := library.PickDirectory(cmd.Context())
		if err != nil {
			return err
		}
		if picked == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
		dir = *picked
	}

	res := library.SetStoragePath(cmd.Context(), dir, moveExisting)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Storage directory set to %s\n", dir)
	return nil
}
