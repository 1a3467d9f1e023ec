package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayout_ContentHeight(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Equal(t, 80, l.ContentWidth())
	assert.Equal(t, 21, l.ContentHeight())
}

func TestLayout_RenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 24)
	h := l.RenderHeader("listmailer", "admin")
	assert.Equal(t, 60, lipgloss.Width(h))
	assert.Contains(t, h, "listmailer")
	assert.Contains(t, h, "admin")
}

func TestLayout_RenderTabs(t *testing.T) {
	l := NewLayout(80, 24)
	out := l.RenderTabs([]Tab{{"1", "Home"}, {"2", "Lists"}}, 1)
	assert.Contains(t, out, "1 Home")
	assert.Contains(t, out, "2 Lists")
}

func TestLayout_RenderWithFrame(t *testing.T) {
	l := NewLayout(40, 10)
	out := l.RenderWithFrame("H", "T", "body", "S")
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, "H", strings.TrimSpace(lines[0]))
	assert.Equal(t, "S", strings.TrimSpace(lines[len(lines)-1]))
}
