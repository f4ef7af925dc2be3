// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkalabin/calib-keeper/internal/service"
)

func newSyncCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push all pending records to the server now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Trigger.Manual(cmd.Context())
			if errors.Is(err, service.ErrSyncBusy) {
				fmt.Println(labelStyle.Render("a sync run is already in progress"))
				return nil
			}
			if err != nil {
				return err
			}

			if result.Ok {
				fmt.Println(headerStyle.Render(fmt.Sprintf("sync complete: %d pushed", result.Pushed)))
				return nil
			}
			fmt.Println(errorStyle.Render(fmt.Sprintf(
				"sync incomplete: %d pushed, %d still pending", result.Pushed, result.Failed)))
			return nil
		},
	}
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue depth and server reachability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := app.Records.ListUnsynced(cmd.Context())
			if err != nil {
				return err
			}

			reachable := "reachable"
			if err = app.Gateway.Ping(cmd.Context()); err != nil {
				reachable = "unreachable"
			}

			fmt.Printf("%s %s\n", labelStyle.Render("server:"), reachable)
			fmt.Printf("%s %d\n", labelStyle.Render("pending records:"), len(pending))

			if subject, err := app.Gateway.TokenSubject(); err == nil {
				fmt.Printf("%s %s\n", labelStyle.Render("authenticated as:"), subject)
			}
			return nil
		},
	}
}

func newWatchCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run in the background, syncing as records and connectivity arrive",
		Long: "watch keeps the process alive: it probes the server, drains the queue\n" +
			"on reconnect, and reacts to sync broadcasts from other instances\n" +
			"sharing the same store. Stop with Ctrl-C.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			if err = app.StartBackground(ctx); err != nil {
				return err
			}

			fmt.Println(headerStyle.Render("watching for records and connectivity, Ctrl-C to stop"))
			<-ctx.Done()
			fmt.Println(labelStyle.Render("shutting down"))
			return nil
		},
	}
}
