package sh

import "fmt"

// SyntaxError reports bad quoting or substitution nesting found while
// tokenizing, or a malformed construct found while parsing. The offending
// text is echoed back to the user on stderr.
type SyntaxError struct {
	Msg  string
	Text string
}

func (e *SyntaxError) Error() string {
	if e.Text == "" {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error: %s near %q", e.Msg, e.Text)
}

func syntaxErrorf(text, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Text: text}
}

// ExpandError reports a failed expansion, e.g. an unset variable reference
// under `set -u`.
type ExpandError struct {
	Msg string
}

func (e *ExpandError) Error() string {
	return e.Msg
}

func expandErrorf(format string, args ...interface{}) *ExpandError {
	return &ExpandError{Msg: fmt.Sprintf(format, args...)}
}
