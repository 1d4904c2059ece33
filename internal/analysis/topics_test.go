package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTopics(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "performance keywords",
			text:     "The returns this quarter were impressive",
			expected: []string{"performance"},
		},
		{
			name:     "fee keywords",
			text:     "Your fees feel expensive compared to others",
			expected: []string{"fees"},
		},
		{
			name:     "communication keywords",
			text:     "I never get a response or any update from you",
			expected: []string{"communication"},
		},
		{
			name:     "risk keywords",
			text:     "This allocation seems too volatile for me",
			expected: []string{"risk"},
		},
		{
			name:     "market keywords",
			text:     "Is a recession coming next year?",
			expected: []string{"market"},
		},
		{
			name:     "service keywords",
			text:     "Thanks for the quick support and advice",
			expected: []string{"service"},
		},
		{
			name:     "keyword matched as substring",
			text:     "Feeling bullish about tech",
			expected: []string{"market"},
		},
		{
			name:     "case insensitive",
			text:     "FEES ARE TOO HIGH",
			expected: []string{"fees"},
		},
		{
			name:     "multiple groups keep declaration order",
			text:     "The market dipped but my returns held and the service was great",
			expected: []string{"performance", "market", "service"},
		},
		{
			name: "capped when every group matches",
			text: "Performance is down, fees are high, communication is poor, " +
				"the risk scares me, the market is rough and the service is slow",
			expected: []string{"performance", "fees", "communication", "risk", "market"},
		},
		{
			name:     "no recognized topics",
			text:     "Hello, hope you had a nice weekend",
			expected: []string{},
		},
		{
			name:     "empty text",
			text:     "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics := ExtractTopics(tt.text)

			assert.NotNil(t, topics)
			assert.Equal(t, tt.expected, topics)
			assert.LessOrEqual(t, len(topics), MAX_TOPICS)
		})
	}
}

func TestExtractTopics_Deterministic(t *testing.T) {
	text := "The market is volatile and the fees worry me"

	first := ExtractTopics(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ExtractTopics(text))
	}
}

func TestExtractTopics_NoDuplicateTopics(t *testing.T) {
	// Several keywords from the same group must still tag the group once.
	topics := ExtractTopics("The gains, profit and returns all look strong")

	assert.Equal(t, []string{"performance"}, topics)
}
