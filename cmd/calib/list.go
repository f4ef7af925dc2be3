// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkalabin/calib-keeper/models"
)

func newListCmd(root *rootFlags) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored calibration records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			var records []models.CalibrationRecord
			if pendingOnly {
				records, err = app.Records.ListUnsynced(cmd.Context())
			} else {
				records, err = app.Records.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println(labelStyle.Render("no records"))
				return nil
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("%-38s %-18s %-8s %-8s %s",
				"local id", "certificate", "verdict", "status", "modified")))
			for _, r := range records {
				fmt.Printf("%-38s %-18s %-8s %-8s %s\n",
					r.LocalID,
					r.Payload.CertificateNumber,
					verdict(r.Summary.Overall),
					syncBadge(r.Synced),
					formatWhen(r.LastModified),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "show only records waiting for sync")
	return cmd
}

func newDeleteCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <local-id>",
		Short: "Delete a record from the local store",
		Long: "delete removes the record locally. A copy already delivered to the\n" +
			"server is not affected.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			if err = app.Records.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(headerStyle.Render("record deleted"))
			return nil
		},
	}
}
