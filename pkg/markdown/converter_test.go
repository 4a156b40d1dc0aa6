package markdown

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestToTerminal(t *testing.T) {
	// Styles degrade to plain text without a TTY; assert on content.
	color.NoColor = true

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain paragraph",
			input:    "Just some text.",
			expected: "Just some text.",
		},
		{
			name:     "emphasis",
			input:    "This is **bold** and *italic*.",
			expected: "This is bold and italic.",
		},
		{
			name:     "heading",
			input:    "## Dinner ideas",
			expected: "Dinner ideas",
		},
		{
			name:     "list",
			input:    "- Pad Thai\n- Green Curry",
			expected: "• Pad Thai\n• Green Curry",
		},
		{
			name:     "inline code",
			input:    "Preheat to `180C` first.",
			expected: "Preheat to 180C first.",
		},
		{
			name:     "entities unescaped",
			input:    "Salt & pepper",
			expected: "Salt & pepper",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToTerminal(tt.input))
		})
	}
}
