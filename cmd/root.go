package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"AppMovin/config"
	"AppMovin/services"
	"AppMovin/storage"
	"AppMovin/utils"

	"github.com/spf13/cobra"
)

// Version is set by ldflags during build.
var Version = "dev"

var (
	cfg        *config.Config
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "appmovin",
	Short: "AppMovin - personal app library",
	Long: `AppMovin keeps a personal library of application packages, either in a
managed local directory or in a remote store (Google Drive, Cloudflare R2).

Examples:
  # Serve the loopback API used by the UI
  appmovin serve

  # Add a package to the library
  appmovin upload ./demo.pkg --name Demo --version 2.1.0

  # Move the library to another directory
  appmovin path set /mnt/apps --move`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		c.SetupLogging()
		cfg = c
		return nil
	},
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.AddCommand(versionCmd)
}

// newLibrary wires the storage facade from the loaded configuration.
func newLibrary(ctx context.Context) (*services.LibraryService, *storage.LocalBackend, error) {
	local := storage.NewLocalBackend(cfg.DataDir)
	opts := services.Options{
		NewRemote:   services.GoogleDriveFactory(cfg.Google.ClientID, cfg.Google.ClientSecret),
		Picker:      utils.NewTerminalPicker(),
		AuthTimeout: cfg.AuthTimeout,
	}

	if cfg.StorageType == config.StorageR2 {
		r2, err := storage.NewR2Backend(ctx, cfg.R2Storage())
		if err != nil {
			return nil, nil, err
		}
		opts.Initial = r2
	}

	library := services.NewLibraryService(local, opts)
	library.Init(ctx)
	return library, local, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
