package agent

import (
	"regexp"
)

var (
	boldRe          = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe        = regexp.MustCompile(`(^|[^*])\*([^*]+)\*($|[^*])`)
	strikethroughRe = regexp.MustCompile(`~~(.*?)~~`)
	inlineCodeRe    = regexp.MustCompile("`([^`]*)`")
	headerRe        = regexp.MustCompile(`(?m)^#+\s*`)
)

// MarkdownToWhatsApp converts common Markdown emphasis to WhatsApp's
// formatting characters and strips headers, which WhatsApp does not render.
func MarkdownToWhatsApp(text string) string {
	// Italic first: *text* -> _text_. Running bold first would leave
	// single-star text for this pass to mangle.
	text = italicRe.ReplaceAllString(text, "${1}_${2}_${3}")

	// Bold: **text** -> *text*
	text = boldRe.ReplaceAllString(text, "*$1*")

	// Strikethrough: ~~text~~ -> ~text~
	text = strikethroughRe.ReplaceAllString(text, "~$1~")

	// Inline code: `text` -> ```text```
	text = inlineCodeRe.ReplaceAllString(text, "```$1```")

	// Headers have no WhatsApp equivalent
	text = headerRe.ReplaceAllString(text, "")

	return text
}
