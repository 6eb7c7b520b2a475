package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatnav/chrome"
	"chatnav/navigator"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var remoteURL string

func newAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach URL",
		Short: "Open a chat page in Chrome and add the navigator to it",
		Long: `Launches Chrome with a persistent profile (so platform logins survive),
opens URL and installs the navigator overlay. Runs until Ctrl-C or until the
browser goes away.

Use --remote to attach to a Chrome you started yourself with
--remote-debugging-port, e.g. ws://127.0.0.1:9222/devtools/browser/<id>.

Example:
  chatnav attach https://chatgpt.com/
  chatnav attach https://claude.ai/new --remote ws://127.0.0.1:9222/devtools/browser/abc`,
		Args: cobra.ExactArgs(1),
		RunE: runAttach,
	}
	cmd.Flags().StringVar(&remoteURL, "remote", "", "DevTools websocket URL of a running Chrome")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform to use instead of matching the URL")
	return cmd
}

func runAttach(cmd *cobra.Command, args []string) error {
	url := args[0]
	e, err := setup(url)
	if err != nil {
		return err
	}

	opts := chrome.Options{
		ChromePath: e.cfg.Browser.ChromePath,
		UserAgent:  e.cfg.Browser.UserAgent,
		Timeout:    e.cfg.Browser.Timeout(),
		Headless:   e.cfg.Browser.Headless,
		RemoteURL:  e.cfg.Browser.RemoteURL,
		DismissKey: e.cfg.Navigator.DismissKey,
		Logger:     e.log,
	}
	if remoteURL != "" {
		opts.RemoteURL = remoteURL
	}

	host, err := chrome.Launch(opts)
	if err != nil {
		return err
	}
	defer host.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := host.Navigate(ctx, url); err != nil {
		return err
	}
	if loc, err := host.Location(ctx); err == nil && loc != url {
		e.log.WithFields(logrus.Fields{"from": url, "to": loc}).Debug("redirected")
	}

	// The app shells render their message lists after load.
	if d := e.ex.StartupDelay(); d > 0 {
		e.log.WithField("delay", d).Debug("waiting for page to settle")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d):
		}
	}

	if err := host.Install(ctx); err != nil {
		return err
	}

	ctrl := navigator.New(e.ex, host, e.navigatorOptions())
	if err := ctrl.Init(ctx); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"platform":  e.ex.Platform(),
		"questions": len(ctrl.Questions()),
		"chats":     len(ctrl.Chats()),
	}).Info("navigator installed")
	return ctrl.Run(ctx)
}
