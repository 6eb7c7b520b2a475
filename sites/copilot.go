package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(Copilot),
		Brand:          "Copilot",
		Hosts:          []string{"copilot.microsoft.com"},
		StartupDelayMs: 2000,

		Questions: []string{
			`[data-content="user-message"]`,
			`div[class*="user-message"]`,
			`cib-message-group[source="user"]`,
		},
		QuestionText: []string{
			`.text-message-content`,
		},
		AssistantPattern: `^Copilot (said|says):`,

		Chats: []string{
			`a[href^="/chats/"]`,
			`[data-testid="conversation-item"]`,
		},
		ChatTitle: []string{
			`p`,
			`span`,
		},
		ChatIDPattern: `/chats/([A-Za-z0-9]+)`,

		Heading: []string{`title`},
	})
}
