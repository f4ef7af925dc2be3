// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(root *rootFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the certificate register as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			out := os.Stdout
			if outPath != "" {
				out, err = os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer out.Close()
			}

			if err = app.Records.ExportCSV(cmd.Context(), out); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Println(headerStyle.Render("register exported to " + outPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout when empty)")
	return cmd
}
