package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "example.com", "https://example.com"},
		{"bare host with path", "example.com/login", "https://example.com/login"},
		{"http preserved", "http://example.com", "http://example.com"},
		{"https preserved", "https://example.com", "https://example.com"},
		{"about page", "about:blank", "about:blank"},
		{"file scheme", "file:///tmp/page.html", "file:///tmp/page.html"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestParseElements(t *testing.T) {
	raw := []any{
		map[string]any{"index": float64(0), "tag": "a", "text": "Home", "href": "/"},
		map[string]any{"index": float64(1), "tag": "input", "type": "text", "text": "Search"},
		"garbage entry",
	}
	elements := parseElements(raw)
	assert.Equal(t, []Element{
		{Index: 0, Tag: "a", Text: "Home", Href: "/"},
		{Index: 1, Tag: "input", Type: "text", Text: "Search"},
	}, elements)

	assert.Nil(t, parseElements(nil))
	assert.Nil(t, parseElements("not a list"))
}

func TestPageStateRender(t *testing.T) {
	state := &PageState{
		URL:   "https://example.com",
		Title: "Example",
		Elements: []Element{
			{Index: 0, Tag: "a", Text: "More information", Href: "https://iana.org"},
			{Index: 1, Tag: "input", Type: "search", Text: "Search"},
			{Index: 2, Tag: "button"},
		},
	}
	got := state.Render()
	assert.Contains(t, got, "URL: https://example.com\n")
	assert.Contains(t, got, "Title: Example\n")
	assert.Contains(t, got, "[0]<a> More information (https://iana.org)\n")
	assert.Contains(t, got, "[1]<input:search> Search\n")
	assert.Contains(t, got, "[2]<button>\n")
}

func TestPageStateRender_NoElements(t *testing.T) {
	state := &PageState{URL: "about:blank", Title: ""}
	assert.Contains(t, state.Render(), "No interactive elements found.")
}

func TestIndexSelector(t *testing.T) {
	assert.Equal(t, `[data-bd-index="7"]`, indexSelector(7))
}
