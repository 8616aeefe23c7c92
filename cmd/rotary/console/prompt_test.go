package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptText(t *testing.T) {
	assert.Equal(t, "burn? [N/y]: ", promptText("burn?", []string{No, Yes}))
	assert.Equal(t, "name: ", promptText("name: ", nil))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		response string
		expected string
	}{
		{"", No},
		{"y", Yes},
		{" Y ", Yes},
		{"yes", No},
		{"n", No},
	}
	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			assert.Equal(t, tt.expected, match(tt.response, []string{No, Yes}))
		})
	}
	assert.Equal(t, "free text", match("free text", nil))
}
