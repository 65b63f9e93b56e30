package markdown

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrSecurity matches every *SecurityError.
	ErrSecurity = errors.New("markdown: disallowed content")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("markdown: parse failed")
)

// SecurityError reports input rejected by the validation gate.
type SecurityError struct {
	Pattern string // name of the matched denylist entry
	Offset  int    // byte offset of the match
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("markdown: disallowed content (%s) at offset %d", e.Pattern, e.Offset)
}

// Is reports ErrSecurity as a match.
func (e *SecurityError) Is(target error) bool { return target == ErrSecurity }

// ParseError reports a structural failure while building the node tree.
type ParseError struct {
	Line int // zero-based line index, -1 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("markdown: parse failed: %v", e.Err)
	}
	return fmt.Sprintf("markdown: parse failed at line %d: %v", e.Line+1, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse as a match.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ErrorElement returns the placeholder shown instead of content that could
// not be rendered.
func ErrorElement(err error) *html.Node {
	msg := "内容渲染失败"
	if errors.Is(err, ErrSecurity) {
		msg = "内容包含不安全的代码，已阻止显示"
	}
	div := element(atom.Div, attr("class", "markdown-error"), attr("role", "alert"))
	div.AppendChild(text(msg))
	return div
}
