package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(DeepSeek),
		Brand:          "DeepSeek",
		Hosts:          []string{"chat.deepseek.com"},
		StartupDelayMs: 1500,

		// DeepSeek ships hashed class names; the data attributes are the
		// steadier family and come first.
		Questions: []string{
			`div[data-role="user"]`,
			`div._9663006`,
		},
		QuestionText: []string{
			`.fbb737a4`,
		},
		AssistantPattern: `^(DeepSeek said|Thought for \d+ seconds?)`,

		Chats: []string{
			`a[href^="/a/chat/s/"]`,
			`a._546d736`,
		},
		ChatTitle: []string{
			`.c08e6e93`,
			`div[class*="title"]`,
		},
		ChatIDPattern: `/chat/s/([0-9a-fA-F-]+)`,

		Heading: []string{`.d8ed659a`, `title`},
	})
}
