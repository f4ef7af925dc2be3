// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkalabin/calib-keeper/internal/client"
	"github.com/mkalabin/calib-keeper/internal/config"
)

// rootFlags collects persistent flag values merged into the configuration as
// the highest-priority source after the JSON file.
type rootFlags struct {
	serverURL  string
	token      string
	dbPath     string
	configPath string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "calib",
		Short: "Offline-first calibration record keeper",
		Long: "calib stores calibration certificates locally and synchronises them\n" +
			"to the calibration server whenever connectivity allows. Records saved\n" +
			"offline queue up and are pushed in order once the server is reachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.serverURL, "server", "s", "", "calibration server base URL")
	pf.StringVarP(&flags.token, "token", "t", "", "bearer token for push requests")
	pf.StringVarP(&flags.dbPath, "db", "d", "", "path to the local record store")
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a JSON configuration file")
	pf.StringVar(&flags.logFile, "log-file", "", "log file path (stdout when empty)")

	root.AddCommand(
		newSaveCmd(flags),
		newListCmd(flags),
		newStatusCmd(flags),
		newSyncCmd(flags),
		newWatchCmd(flags),
		newExportCmd(flags),
		newDeleteCmd(flags),
		newVersionCmd(),
	)

	return root
}

func (f *rootFlags) overrides() *config.ClientConfig {
	return &config.ClientConfig{
		Adapter: config.Adapter{
			BaseURL:   f.serverURL,
			AuthToken: f.token,
		},
		Storage: config.Storage{
			DSN: f.dbPath,
		},
		Log: config.Log{
			Path: f.logFile,
		},
		JSONFilePath: f.configPath,
	}
}

// newApp builds the application for one command invocation. The caller must
// Close it.
func newApp(cmd *cobra.Command, flags *rootFlags) (*client.App, error) {
	return client.NewApp(cmd.Context(), flags.overrides())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, v := range []*string{&buildVersion, &buildDate, &buildCommit} {
				if *v == "" {
					*v = "N/A"
				}
			}
			fmt.Printf("Build version: %s\n", buildVersion)
			fmt.Printf("Build date: %s\n", buildDate)
			fmt.Printf("Build commit: %s\n", buildCommit)
		},
	}
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
