package main

import (
	"encoding/json"
	"fmt"
	"os"

	"chatnav/dom"
	"chatnav/navigator"
	"chatnav/render"
	"chatnav/sites"

	"github.com/spf13/cobra"
)

var extractJSON bool

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract questions and chats from a saved HTML page",
		Long: `Runs both extractions once over a saved page and prints the panels.
The URL picks the platform and resolves relative chat links.

Example:
  chatnav extract claude.html --url https://claude.ai/chat/1234
  chatnav extract page.html --platform gemini --json`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "URL the page was saved from (required)")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform to use instead of matching the URL")
	cmd.Flags().BoolVar(&extractJSON, "json", false, "Print the lists as JSON")
	cmd.MarkFlagRequired("url")
	return cmd
}

type extractResult struct {
	Platform  sites.Platform   `json:"platform"`
	URL       string           `json:"url"`
	Questions []sites.Question `json:"questions"`
	Chats     []sites.Chat     `json:"chats"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	e, err := setup(pageURL)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	page, err := dom.Parse(f, pageURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	res := extractResult{
		Platform:  e.ex.Platform(),
		URL:       pageURL,
		Questions: e.ex.ExtractQuestions(page),
		Chats:     e.ex.ExtractChats(page),
	}
	if res.Questions == nil {
		res.Questions = []sites.Question{}
	}
	if res.Chats == nil {
		res.Chats = []sites.Chat{}
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	width := render.DefaultWidth
	if render.IsTerminal(os.Stdout) {
		width = render.Width(os.Stdout)
	}
	v := navigator.View{Questions: res.Questions, Chats: res.Chats}
	fmt.Fprintln(out, render.Panels(v, string(res.Platform), pageURL, width))
	return nil
}
