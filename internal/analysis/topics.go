package analysis

import "strings"

// MAX_TOPICS caps how many topic tags one piece of feedback can carry.
const MAX_TOPICS = 5

type topicGroup struct {
	Topic    string
	Keywords []string
}

// Declaration order is meaningful: extracted topics keep this order.
var topicCatalog = []topicGroup{
	{Topic: "performance", Keywords: []string{"performance", "returns", "gains", "losses", "profit", "loss"}},
	{Topic: "fees", Keywords: []string{"fees", "charges", "costs", "expensive", "cheap"}},
	{Topic: "communication", Keywords: []string{"communication", "contact", "response", "update", "information"}},
	{Topic: "risk", Keywords: []string{"risk", "volatile", "stability", "safe", "dangerous"}},
	{Topic: "market", Keywords: []string{"market", "economy", "recession", "bull", "bear", "volatility"}},
	{Topic: "service", Keywords: []string{"service", "support", "help", "assistance", "advice"}},
}

// ExtractTopics tags text with every topic group whose keywords appear as
// substrings of the lowercased input. Pure and deterministic; unrecognized
// content yields an empty list, never a fabricated tag.
func ExtractTopics(text string) []string {
	lowered := strings.ToLower(text)

	topics := make([]string, 0, MAX_TOPICS)
	for _, group := range topicCatalog {
		if len(topics) == MAX_TOPICS {
			break
		}
		for _, keyword := range group.Keywords {
			if strings.Contains(lowered, keyword) {
				topics = append(topics, group.Topic)
				break
			}
		}
	}

	return topics
}
