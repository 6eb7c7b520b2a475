package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(Claude),
		Brand:          "Claude",
		Hosts:          []string{"claude.ai"},
		StartupDelayMs: 1500,

		// The whole bubble is the text node; its paragraphs must not be split.
		Questions: []string{
			`[data-testid="user-message"]`,
			`.font-user-message`,
			`div[data-message-author="human"]`,
		},
		AssistantPattern: `^(Claude said:|Claude responded:)`,

		Chats: []string{
			`a[href^="/chat/"]`,
			`[data-testid="recent-chat"] a`,
		},
		ChatTitle: []string{
			`span.truncate`,
			`.truncate`,
		},
		ChatIDPattern: `/chat/([0-9a-fA-F-]+)`,

		Heading: []string{
			`[data-testid="chat-title-button"]`,
			`[data-testid="chat-menu-trigger"]`,
			`title`,
		},
	})
}
