package sites

import "chatnav/rules"

func init() {
	Register(rules.Profile{
		Platform:       string(Perplexity),
		Brand:          "Perplexity",
		Hosts:          []string{"perplexity.ai"},
		StartupDelayMs: 2000,

		Questions: []string{
			`[class*="group/query"]`,
			`h1[class*="query"]`,
			`[data-testid="user-query"]`,
		},
		QuestionText: []string{
			`span.select-text`,
			`.whitespace-pre-line`,
		},
		AssistantPattern: `(?i)^(perplexity (said|answered)|answer from perplexity)`,

		Chats: []string{
			`a[href^="/search/"]`,
			`[data-testid="thread-item"] a`,
		},
		ChatTitle: []string{
			`[class*="line-clamp"]`,
			`span`,
		},
		ChatIDPattern: `/search/([^/?#]+)`,
		ChromeLabels:  `(?i)^(home|discover|spaces|library|settings|sign in|sign up|new thread|account)$`,

		// Thread pages render the first query as an h1, so a bare h1 is
		// only trusted when it is not a query.
		Heading: []string{
			`[data-testid="thread-title"]`,
			`h1:not([class*="query"])`,
			`title`,
		},
	})
}
