// Package render turns statistic results into Telegram MarkdownV2 text,
// monospace tables and PNG charts.
package render

import (
	"regexp"
	"strings"
)

// markdownPattern matches either an already formed [text](http...) link, which
// passes through untouched, or a single character reserved by MarkdownV2.
var markdownPattern = regexp.MustCompile("(\\[[^\\]\\[]*\\]\\(http[^()]*\\))|([_*\\[\\]()~>#+\\-=|{}.!\\\\`])")

// EscapeMarkdown escapes MarkdownV2 reserved characters outside of links.
// It is not idempotent: escaping twice escapes the inserted backslashes.
func EscapeMarkdown(s string) string {
	return markdownPattern.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) > 1 {
			return m
		}
		return `\` + m
	})
}

// codeEscaper escapes the two characters MarkdownV2 reserves inside code blocks.
var codeEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// CodeBlock wraps s in a fenced block for fixed-width display.
func CodeBlock(s string) string {
	return "```\n" + codeEscaper.Replace(strings.TrimRight(s, "\n")) + "\n```"
}

// Bold formats an already escaped text as bold.
func Bold(escaped string) string {
	return "*" + escaped + "*"
}

// InlineCode formats s as a single line of inline code.
func InlineCode(s string) string {
	return "`" + codeEscaper.Replace(s) + "`"
}
