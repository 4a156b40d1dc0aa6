package markdown

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/russross/blackfriday/v2"
)

var (
	boldStyle    = color.New(color.Bold)
	italicStyle  = color.New(color.Italic)
	codeStyle    = color.New(color.FgCyan)
	headingStyle = color.New(color.Bold, color.Underline)
)

// ToTerminal renders markdown as ANSI-styled terminal text.
func ToTerminal(markdown string) string {
	if markdown == "" {
		return ""
	}

	// Convert markdown to HTML using blackfriday, then map the small
	// set of tags the assistant actually produces onto ANSI styles.
	html := string(blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions)))

	return htmlToANSI(html)
}

func htmlToANSI(html string) string {
	// Remove wrapping <p> tags
	html = regexp.MustCompile(`(?s)<p>(.*?)</p>`).ReplaceAllString(html, "$1\n")

	// Headings become bold underlined lines
	html = regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`).ReplaceAllStringFunc(html, func(match string) string {
		text := regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`).ReplaceAllString(match, "$1")
		return headingStyle.Sprint(text) + "\n"
	})

	html = replaceTagPair(html, "strong", boldStyle.Sprint)
	html = replaceTagPair(html, "em", italicStyle.Sprint)

	// Code blocks and inline code
	html = regexp.MustCompile(`(?s)<pre><code(?: class="[^"]*")?>(.*?)</code></pre>`).ReplaceAllStringFunc(html, func(match string) string {
		text := regexp.MustCompile(`(?s)<pre><code(?: class="[^"]*")?>(.*?)</code></pre>`).ReplaceAllString(match, "$1")
		return codeStyle.Sprint(strings.TrimRight(text, "\n")) + "\n"
	})
	html = replaceTagPair(html, "code", codeStyle.Sprint)

	// Lists become bullet lines
	html = strings.ReplaceAll(html, "<ul>", "")
	html = strings.ReplaceAll(html, "</ul>", "")
	html = strings.ReplaceAll(html, "<ol>", "")
	html = strings.ReplaceAll(html, "</ol>", "")
	html = strings.ReplaceAll(html, "<li>", "• ")
	html = strings.ReplaceAll(html, "</li>", "\n")

	// Strip any remaining tags
	html = regexp.MustCompile(`</?[a-zA-Z]+(?:\s[^>]*)?/?>`).ReplaceAllString(html, "")

	// Unescape the entities blackfriday emits
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&quot;", `"`)
	html = strings.ReplaceAll(html, "&#39;", "'")

	// Clean up extra newlines
	html = regexp.MustCompile(`\n{3,}`).ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}

func replaceTagPair(html, tag string, style func(a ...interface{}) string) string {
	pattern := regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
	return pattern.ReplaceAllStringFunc(html, func(match string) string {
		text := pattern.ReplaceAllString(match, "$1")
		return style(text)
	})
}
