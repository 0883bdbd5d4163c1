package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownNeverContainsScriptTag(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"plain text",
		"<ScRiPt>alert(1)</sCriPt>",
		"<img onerror=alert(1)>",
	}
	for _, in := range inputs {
		out := Markdown(in, false)
		assert.False(t, strings.Contains(strings.ToLower(out), "<script"))
	}
}

func TestMarkdownScenario5(t *testing.T) {
	out := Markdown("<script>alert(1)</script>[x](javascript:alert(1))", false)
	assert.False(t, strings.Contains(strings.ToLower(out), "<script"))
	assert.False(t, strings.Contains(strings.ToLower(out), "javascript:"))
	assert.True(t, strings.Contains(out, "#blocked-url") || strings.Contains(out, "#blocked-scheme"))
}

func TestMarkdownEscapesByDefault(t *testing.T) {
	out := Markdown(`<b>bold</b> & "quoted"`, false)
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "&amp;")
}

func TestMarkdownAllowsSafeHTMLWhenRequested(t *testing.T) {
	out := Markdown("<strong>bold</strong><script>x</script>", true)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.False(t, strings.Contains(strings.ToLower(out), "<script"))
}

func TestMarkdownBlocksDisallowedURLScheme(t *testing.T) {
	out := Markdown("[click](ftp2://evil)", false)
	assert.Contains(t, out, "#blocked-scheme")
}

func TestMarkdownBlocksOverlongURL(t *testing.T) {
	longURL := "https://example.com/" + strings.Repeat("a", MaxURLLength)
	out := Markdown("[click]("+longURL+")", false)
	assert.Contains(t, out, "#blocked-url")
}

func TestMarkdownEscapesLeadingBang(t *testing.T) {
	out := Markdown("!dangerous-prefix\nsecond line", false)
	assert.True(t, strings.HasPrefix(out, `\!dangerous-prefix`))
}
