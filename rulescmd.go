package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"chatnav/rules"
	"chatnav/sites"

	"github.com/spf13/cobra"
)

var (
	rulesMerged bool
	rulesAdd    rules.Profile
)

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage selector overrides for platforms",
		Long: `Platforms change their markup often. An override adds selectors that are
tried before the built-in ones, without a rebuild. Overrides live in the
rules directory as <platform>.json.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List platforms that have an override",
		Args:  cobra.NoArgs,
		RunE:  runRulesList,
	}

	showCmd := &cobra.Command{
		Use:   "show PLATFORM",
		Short: "Print the override for a platform",
		Args:  cobra.ExactArgs(1),
		RunE:  runRulesShow,
	}
	showCmd.Flags().BoolVar(&rulesMerged, "merged", false, "Print the effective profile: override merged into the built-in one")

	addCmd := &cobra.Command{
		Use:   "add PLATFORM",
		Short: "Add selectors to a platform's override",
		Long: `Adds selectors to the override for PLATFORM, creating it when missing.
New selectors are tried before the ones already there.

Example:
  chatnav rules add claude --question 'div[data-testid="human-turn"]'`,
		Args: cobra.ExactArgs(1),
		RunE: runRulesAdd,
	}
	addCmd.Flags().StringArrayVar(&rulesAdd.Questions, "question", nil, "Selector for user messages")
	addCmd.Flags().StringArrayVar(&rulesAdd.QuestionText, "question-text", nil, "Selector for the text inside a user message")
	addCmd.Flags().StringArrayVar(&rulesAdd.Chats, "chat", nil, "Selector for history entries")
	addCmd.Flags().StringArrayVar(&rulesAdd.ChatTitle, "chat-title", nil, "Selector for the title inside a history entry")
	addCmd.Flags().StringArrayVar(&rulesAdd.Heading, "heading", nil, "Selector for the current conversation title")

	deleteCmd := &cobra.Command{
		Use:   "delete PLATFORM",
		Short: "Remove a platform's override",
		Args:  cobra.ExactArgs(1),
		RunE:  runRulesDelete,
	}

	rulesCmd.AddCommand(listCmd, showCmd, addCmd, deleteCmd)
	return rulesCmd
}

func openRules() (*rules.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return rules.NewCache(cfg.Rules.Dir)
}

func builtin(platform string) (rules.Profile, error) {
	p, ok := sites.Lookup(sites.Platform(platform))
	if !ok {
		return rules.Profile{}, fmt.Errorf("%s: %w", platform, sites.ErrUnknownPlatform)
	}
	return p, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cache, err := openRules()
	if err != nil {
		return err
	}
	platforms, err := cache.List()
	if err != nil {
		return err
	}
	sort.Strings(platforms)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Overrides in %s\n", cache.LocalDir())
	if len(platforms) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, name := range platforms {
		note := ""
		if _, ok := sites.Lookup(sites.Platform(name)); !ok {
			note = "  (unknown platform, ignored)"
		}
		fmt.Fprintf(out, "  %s%s\n", name, note)
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	cache, err := openRules()
	if err != nil {
		return err
	}

	var p any
	if rulesMerged {
		base, err := builtin(args[0])
		if err != nil {
			return err
		}
		merged, err := cache.Apply(base)
		if err != nil {
			return err
		}
		p = merged
	} else {
		override, err := cache.Get(args[0])
		if err != nil {
			return err
		}
		p = override
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	base, err := builtin(args[0])
	if err != nil {
		return err
	}
	cache, err := openRules()
	if err != nil {
		return err
	}

	current := rules.Profile{Platform: base.Platform}
	if existing, err := cache.Get(base.Platform); err == nil {
		current = *existing
	} else if !errors.Is(err, rules.ErrNoOverride) {
		return err
	}

	add := rulesAdd
	add.Platform = base.Platform
	updated := rules.Merge(current, add)

	// Refuse an override that would leave the platform unusable.
	c, err := rules.Merge(base, updated).Compile()
	if err != nil {
		return err
	}
	if c.Warnings != nil {
		return c.Warnings
	}

	if err := cache.Put(&updated, true); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s override\n", base.Platform)
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	cache, err := openRules()
	if err != nil {
		return err
	}
	if _, err := cache.Get(args[0]); err != nil {
		return err
	}
	if err := cache.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s override\n", args[0])
	return nil
}
