package advisor

import (
	"regexp"
	"strings"
)

var (
	reHeading   = regexp.MustCompile(`(?m)^\s*#+\s*`)
	reBold      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reUnderline = regexp.MustCompile(`__(.*?)__`)
	reItalic    = regexp.MustCompile(`\*(.*?)\*`)
	reCode      = regexp.MustCompile("`(.*?)`")
	reBlankRuns = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// StripMarkdown removes the markdown markers models emit despite plain-text
// instructions, keeping the wrapped text
func StripMarkdown(text string) string {
	text = reHeading.ReplaceAllString(text, "")
	text = reBold.ReplaceAllString(text, "$1")
	text = reUnderline.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reCode.ReplaceAllString(text, "$1")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
