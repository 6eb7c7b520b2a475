// Chatnav adds question and chat navigation panels to AI chat pages, either
// inside a live Chrome tab or over a saved HTML snapshot in the terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"chatnav/config"
	"chatnav/logging"
	"chatnav/navigator"
	"chatnav/rules"
	"chatnav/sites"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	platform   string
	pageURL    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatnav",
		Short: "Navigate the questions and chats of AI chat pages",
		Long: `Chatnav finds your own messages and the chat history on ChatGPT, Claude,
Gemini, DeepSeek, Grok, Perplexity and Copilot pages and lists them in two
panels. Selecting a question scrolls to it and highlights it briefly.

Examples:
  chatnav attach https://claude.ai/new       # live page in Chrome
  chatnav extract page.html --url https://chatgpt.com/c/abc
  chatnav watch page.html --url https://gemini.google.com/app`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/chatnav/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newAttachCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newPlatformsCmd())
	rootCmd.AddCommand(newInitConfigCmd())
	return rootCmd
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and the hosts they match",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range sites.Platforms() {
				p, _ := sites.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, strings.Join(p.Hosts, ", "))
			}
			return nil
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Print the default configuration",
		Long: `Prints the default configuration as TOML.

Example:
  chatnav init-config > ~/.config/chatnav/config.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.DefaultTOML())
			return nil
		},
	}
}

// env is what every page command needs: settings, a logger and the
// extractor for the page.
type env struct {
	cfg *config.Config
	log *logrus.Logger
	ex  *sites.ProfileExtractor
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// setup loads the config and builds the extractor for url, or for the
// --platform flag when it is set.
func setup(url string) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log := logging.New(level, cfg.Log.Format, os.Stderr)

	cache, err := rules.NewCache(cfg.Rules.Dir)
	if err != nil {
		return nil, err
	}

	var ex *sites.ProfileExtractor
	if platform != "" {
		ex, err = sites.New(sites.Platform(platform), cache)
	} else {
		ex, err = sites.ForURL(url, cache)
	}
	if err != nil {
		return nil, err
	}
	if w := ex.Warnings(); w != nil {
		log.WithError(w).Warn("some selectors were skipped")
	}
	log.WithFields(logrus.Fields{"platform": ex.Platform(), "url": url}).Debug("extractor ready")
	return &env{cfg: cfg, log: log, ex: ex}, nil
}

func (e *env) navigatorOptions() navigator.Options {
	return navigator.Options{
		Debounce:   e.cfg.Navigator.Debounce(),
		Highlight:  e.cfg.Navigator.Highlight(),
		DismissKey: e.cfg.Navigator.DismissKey,
		Logger:     e.log,
	}
}
