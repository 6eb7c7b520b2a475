package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(Grok),
		Brand:          "Grok",
		Hosts:          []string{"grok.com", "x.com/i/grok"},
		StartupDelayMs: 1500,

		Questions: []string{
			`div.items-end .message-bubble`,
			`[data-testid="user-message"]`,
		},
		AssistantPattern: `^Grok (said|is thinking)`,

		// History links sit in the same sidebar as the app's navigation.
		Chats: []string{
			`a[href^="/chat/"]`,
			`a[href*="/i/grok?conversation="]`,
		},
		ChatTitle: []string{
			`span.truncate`,
			`span`,
		},
		ChatIDPattern: `(?:/chat/|conversation=)([A-Za-z0-9-]+)`,
		ChromeLabels:  `(?i)^(home|search|chat|voice|imagine|projects|history|settings|new chat|see all)$`,

		Heading: []string{`title`},
	})
}
