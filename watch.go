package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatnav/navigator"
	"chatnav/render"
	"chatnav/snapshot"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Redraw the panels whenever a saved page is rewritten",
		Long: `Keeps the navigator running over a saved page. Every time the file is
written, the page is reparsed and the panels are redrawn once the writes
settle. Stop with Ctrl-C.

Example:
  chatnav watch chat.html --url https://chat.deepseek.com/a/chat/s/42`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "URL the page was saved from (required)")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform to use instead of matching the URL")
	cmd.MarkFlagRequired("url")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup(pageURL)
	if err != nil {
		return err
	}

	host, err := snapshot.Open(args[0], pageURL)
	if err != nil {
		return err
	}
	defer host.Close()
	host.SetLogger(e.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := host.Watch(ctx, args[0], pageURL); err != nil {
		return err
	}

	opts := e.navigatorOptions()
	opts.OnRender = func(v navigator.View) {
		render.Redraw(os.Stdout, render.Panels(v, string(e.ex.Platform()), pageURL, render.Width(os.Stdout)))
	}
	ctrl := navigator.New(e.ex, host, opts)
	if err := ctrl.Init(ctx); err != nil {
		return err
	}
	return ctrl.Run(ctx)
}
