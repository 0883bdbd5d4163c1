package sanitize

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// dangerousPatterns are removed outright (case-insensitive) before any
// escaping happens, regardless of allow_html.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script.*?>.*?</script>`),
	regexp.MustCompile(`(?is)<iframe.*?>.*?</iframe>`),
	regexp.MustCompile(`(?is)<embed[^>]*>`),
	regexp.MustCompile(`(?is)<object.*?>.*?</object>`),
	regexp.MustCompile(`(?is)<form[^>]*>`),
	regexp.MustCompile(`(?is)<input[^>]*>`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)data:text/html`),
}

var markdownLink = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)

// htmlPolicy is the secondary defense pass for the allow_html=true path
// only: a conservative allowlist of formatting tags, applied after the
// dangerous-pattern removal above rather than instead of it.
var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "u", "li", "ul", "ol", "blockquote", "code", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	return p
}

// Markdown strips control bytes, truncates to MaxStringLength, removes
// the fixed set of dangerous HTML/JS patterns, sanitizes URLs inside
// markdown links, and either HTML-escapes the remainder (allow_html
// false, the default used by create_handoff) or runs it through a
// restrictive bluemonday policy as a second line of defense
// (allow_html true). A leading '!' on any line is escaped to '\!' so a
// line cannot masquerade as a markdown image/command prefix.
func Markdown(text string, allowHTML bool) string {
	bumpTotal()
	modified := false

	s := stripControlBytes(text)
	if s != text {
		modified = true
	}
	if len(s) > MaxStringLength {
		s = s[:MaxStringLength]
		modified = true
	}

	// Link targets are judged before pattern removal, while a blocked
	// scheme such as javascript: is still present to be recognized.
	s = sanitizeMarkdownURLs(s, &modified)

	for _, pat := range dangerousPatterns {
		if pat.MatchString(s) {
			s = pat.ReplaceAllString(s, "")
			modified = true
		}
	}

	s = sanitizeMarkdownURLs(s, &modified)

	if allowHTML {
		cleaned := htmlPolicy.Sanitize(s)
		if cleaned != s {
			modified = true
		}
		s = cleaned
	} else {
		escaped := html.EscapeString(s)
		if escaped != s {
			modified = true
		}
		s = escaped
	}

	s = escapeLeadingBang(s, &modified)

	if modified {
		bumpModified()
	}
	return s
}

func sanitizeMarkdownURLs(s string, modified *bool) string {
	return markdownLink.ReplaceAllStringFunc(s, func(m string) string {
		parts := markdownLink.FindStringSubmatch(m)
		label, url := parts[1], parts[2]

		if len(url) > MaxURLLength {
			*modified = true
			return "[" + label + "](#blocked-url)"
		}

		parsed, err := netURLParse(url)
		if err != nil {
			*modified = true
			return "[" + label + "](#invalid-url)"
		}

		scheme := parsed.Scheme
		if scheme == "" {
			// Relative/fragment links (no scheme) are left untouched.
			return m
		}
		if _, ok := AllowedURLSchemes[strings.ToLower(scheme)]; !ok {
			*modified = true
			return "[" + label + "](#blocked-scheme)"
		}
		return m
	})
}

func netURLParse(raw string) (*url.URL, error) {
	return url.Parse(raw)
}

func escapeLeadingBang(s string, modified *bool) string {
	lines := strings.Split(s, "\n")
	changed := false
	for i, line := range lines {
		if strings.HasPrefix(line, "!") {
			lines[i] = "\\" + line
			changed = true
		}
	}
	if changed {
		*modified = true
	}
	return strings.Join(lines, "\n")
}
