package stats

import (
	"errors"
	"fmt"

	"github.com/edgard/statsbot/internal/render"
)

// Kind tells the boundary how a statistic invocation ended.
type Kind int

const (
	// KindSuccess carries text and/or an image.
	KindSuccess Kind = iota
	// KindUsage carries a help or usage message.
	KindUsage
	// KindNoData carries the message shown when nothing matched.
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUsage:
		return "usage"
	case KindNoData:
		return "no_data"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Format is the text markup of a result.
type Format int

const (
	// FormatDefault leaves the choice to the boundary, which sends MarkdownV2.
	FormatDefault Format = iota
	// FormatMarkdown is Telegram MarkdownV2.
	FormatMarkdown
	// FormatPlain is unformatted text.
	FormatPlain
)

// Result is the outcome of one statistic invocation. At least one of Text and
// Image is set on success.
type Result struct {
	Kind   Kind
	Text   string
	Format Format
	Image  []byte
	// Message is the raw text of usage and no-data results, before fencing.
	Message string
}

// HasText reports whether the result carries text to send.
func (r Result) HasText() bool { return r.Text != "" }

// HasImage reports whether the result carries a chart.
func (r Result) HasImage() bool { return len(r.Image) > 0 }

func usageResult(msg string) Result {
	return Result{Kind: KindUsage, Text: render.CodeBlock(msg), Format: FormatMarkdown, Message: msg}
}

func noDataResult(msg string) Result {
	return Result{Kind: KindNoData, Text: render.CodeBlock(msg), Format: FormatMarkdown, Message: msg}
}

func textResult(text string) Result {
	return Result{Kind: KindSuccess, Text: text}
}

// UsageError is a user-facing problem with the requested statistic or its
// arguments. It never escapes the Runner as an error.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// AsUsage reports whether err is a UsageError and returns its message.
func AsUsage(err error) (string, bool) {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Msg, true
	}
	return "", false
}
