package sh

import "strings"

// Quoting describes how a token was quoted on the command line. The expander
// dispatches on this single tag instead of distinct node types.
type Quoting int

const (
	// QuotingPlain is an unquoted word, subject to expansion, splitting and
	// globbing.
	QuotingPlain Quoting = iota
	// QuotingSingle is a single-quoted word; fully literal.
	QuotingSingle
	// QuotingDouble is a double-quoted word; variables and substitution
	// markers are still recognized but the result is never split or globbed.
	QuotingDouble
	// QuotingSubstitution is a bare $(…) or `…` word; Text holds the inner
	// command line.
	QuotingSubstitution
)

func (q Quoting) String() string {
	switch q {
	case QuotingPlain:
		return "plain"
	case QuotingSingle:
		return "single"
	case QuotingDouble:
		return "double"
	case QuotingSubstitution:
		return "substitution"
	default:
		return "invalid"
	}
}

// sectionKind classifies one quoting run inside a word.
type sectionKind int

const (
	// secPlain text is expanded, split and globbed.
	secPlain sectionKind = iota
	// secLiteral text came from single quotes or escapes; fully literal.
	secLiteral
	// secDouble text is expanded but never split or globbed.
	secDouble
)

// wordSection is one quoting run of a word, in source order.
type wordSection struct {
	text string
	kind sectionKind
}

// Token is one word or operator of a command line.
type Token struct {
	// Text is the token's content with quotes removed. For substitution
	// tokens it is the inner command line.
	Text string
	// Quoting records the quoting context the token was written in.
	Quoting Quoting
	// SpaceBefore is true when whitespace preceded the token.
	SpaceBefore bool

	// Op marks operator tokens (|, &&, ||, ;, redirections) recognized
	// outside quotes. A quoted "|" is a word, not an operator.
	Op bool

	// noExpand is set when a backslash escaped $ or ` in the word; the
	// expander leaves such tokens alone.
	noExpand bool
	// noGlob is set when a backslash escaped a glob metacharacter.
	noGlob bool

	// sections records the word's quoting runs in source order. Words that
	// mix quoted and unquoted runs expand each run under its own rules.
	sections []wordSection
}

// mixed reports whether the word spans more than one quoting run.
func (t Token) mixed() bool {
	return len(t.sections) > 1
}

// word builds a non-operator token.
func word(text string, quoting Quoting, spaceBefore bool) Token {
	return Token{Text: text, Quoting: quoting, SpaceBefore: spaceBefore}
}

// opToken builds an operator token.
func opToken(text string, spaceBefore bool) Token {
	return Token{Text: text, SpaceBefore: spaceBefore, Op: true}
}

// isOp reports whether the token is the given operator.
func (t Token) isOp(text string) bool {
	return t.Op && t.Text == text
}

// isKeyword reports whether the token is an unquoted word with the given
// text, e.g. "for" or "done".
func (t Token) isKeyword(text string) bool {
	return !t.Op && t.Quoting == QuotingPlain && t.Text == text
}

// String renders the token back in a canonical shell form.
func (t Token) String() string {
	switch t.Quoting {
	case QuotingSingle:
		return "'" + t.Text + "'"
	case QuotingDouble:
		return `"` + t.Text + `"`
	case QuotingSubstitution:
		return "$(" + t.Text + ")"
	default:
		return t.Text
	}
}

// joinTokens renders tokens separated by single spaces.
func joinTokens(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}
