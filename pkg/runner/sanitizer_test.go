package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "I want a beer", "I want a beer"},
		{"trimmed", "  hi \n", "hi"},
		{"line breaks fold", "order\r\na stout", "order a stout"},
		{"whitespace runs fold", "yes\t\t  please", "yes please"},
		{"ansi escape dropped", "\x1b[31mred\x1b[0m ale", "[31mred[0m ale"},
		{"null and bell dropped", "pale\x00\x07 ale", "pale ale"},
		{"unicode kept", "Kölsch 🍺", "Kölsch 🍺"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_Rejects(t *testing.T) {
	_, err := SanitizeInput(strings.Repeat("a", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput(strings.Repeat("a", DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = SanitizeInput("bad \xff byte")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("short")
	assert.NoError(t, err)

	_, err = SanitizeInput("much too long for ten")
	assert.ErrorIs(t, err, ErrInputTooLarge)
}
