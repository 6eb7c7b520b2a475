package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(Gemini),
		Brand:          "Gemini",
		Hosts:          []string{"gemini.google.com"},
		StartupDelayMs: 2000,

		Questions: []string{
			`user-query`,
			`.user-query-container`,
			`[data-test-id="user-query"]`,
		},
		QuestionText: []string{
			`.query-text`,
			`.query-text-line`,
		},
		AssistantPattern: `^(Gemini said|Show thinking)`,

		// Sidebar rows share markup with the app's own navigation entries.
		Chats: []string{
			`[data-test-id="conversation"]`,
			`.conversation-items-container .conversation`,
			`side-navigation a[href^="/app/"]`,
		},
		ChatTitle: []string{
			`.conversation-title`,
		},
		ChatIDPattern: `/app/([0-9a-fA-F]+)`,
		ChromeLabels:  `(?i)^(new chat|gem manager|explore gems|settings( & help)?|help|activity|recent)$`,

		Heading: []string{
			`[data-test-id="conversation-title"]`,
			`title`,
		},
	})
}
