package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, "v1.2.3")
	assert.Contains(t, out.String(), "v1.2.3")
	assert.Contains(t, out.String(), `|___/`)
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(40)
	out, err := render("**Ale**\n\n1. Yes\n2. No")
	require.NoError(t, err)
	assert.Contains(t, out, "Ale")
	assert.True(t, strings.Contains(out, "1.") || strings.Contains(out, "Yes"))
}
