package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(ChatGPT),
		Brand:          "ChatGPT",
		Hosts:          []string{"chatgpt.com", "chat.openai.com"},
		StartupDelayMs: 1500,

		Questions: []string{
			`div[data-message-author-role="user"]`,
			`[data-testid="user-message"]`,
			`.user-message-bubble-color`,
		},
		QuestionText: []string{
			`.whitespace-pre-wrap`,
		},
		AssistantPattern: `^(ChatGPT said:|ChatGPT$)`,

		Chats: []string{
			`nav a[href^="/c/"]`,
			`aside a[href*="/c/"]`,
			`[data-testid^="history-item-"] a`,
		},
		ChatTitle: []string{
			`.truncate`,
			`span[dir="auto"]`,
		},
		ChatIDPattern: `/c/([0-9a-fA-F-]+)`,

		Heading: []string{`main h1`, `title`},
	})
}
