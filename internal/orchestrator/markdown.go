package orchestrator

import (
	"regexp"
	"strings"
)

// The assistant is instructed not to emit markdown, but it occasionally does
// anyway. Strip the common artifacts so transcript text reads naturally.
var (
	reBold      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reBoldAlt   = regexp.MustCompile(`__(.*?)__`)
	reItalic    = regexp.MustCompile(`\*(.*?)\*`)
	reItalicAlt = regexp.MustCompile(`_(.*?)_`)
	reHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBullet    = regexp.MustCompile(`(?m)^[-*+]\s+`)
	reCode      = regexp.MustCompile("`([^`]*)`")
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

func stripMarkdown(text string) string {
	text = reBold.ReplaceAllString(text, "$1")
	text = reBoldAlt.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reItalicAlt.ReplaceAllString(text, "$1")
	text = reHeading.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = reCode.ReplaceAllString(text, "$1")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
