package sh

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// expandTokens turns a segment's tokens into argv strings. Per token the
// order is: variable/positional substitution, command substitution, brace
// ranges, then glob expansion. Substitution always completes before its
// result is split or globbed.
func (c *execContext) expandTokens(tokens []Token) ([]string, error) {
	var argv []string

	for _, tok := range tokens {
		// Words mixing quoted and unquoted runs expand each run under its
		// own rules.
		if tok.mixed() {
			fields, err := c.expandSections(tok)
			if err != nil {
				return nil, err
			}
			argv = append(argv, fields...)
			continue
		}

		switch tok.Quoting {
		case QuotingSingle:
			argv = append(argv, tok.Text)

		case QuotingDouble:
			// "$@" expands each positional parameter as its own argument.
			if tok.Text == "$@" {
				argv = append(argv, c.params.args...)
				continue
			}
			if tok.noExpand {
				argv = append(argv, tok.Text)
				continue
			}
			expanded, err := c.expandString(tok.Text)
			if err != nil {
				return nil, err
			}
			// Double quoting preserves the result as a single token, even
			// when empty.
			argv = append(argv, expanded)

		case QuotingSubstitution:
			out, err := c.commandSubst(tok.Text)
			if err != nil {
				return nil, err
			}
			// Unquoted substitution results are word-split; an empty result
			// contributes zero tokens.
			for _, field := range strings.Fields(out) {
				argv = append(argv, c.globField(field, tok)...)
			}

		default: // QuotingPlain
			expanded := tok.Text
			if !tok.noExpand {
				var err error
				expanded, err = c.expandString(tok.Text)
				if err != nil {
					return nil, err
				}
			}
			for _, field := range strings.Fields(expanded) {
				braced := []string{field}
				if !tok.noGlob {
					braced = expandBraces(field)
				}
				for _, b := range braced {
					argv = append(argv, c.globField(b, tok)...)
				}
			}
		}
	}

	return argv, nil
}

// wordFrag is one expanded piece of a mixed-quoting word. Quoted fragments
// never split or glob; unquoted fragments do both.
type wordFrag struct {
	text   string
	quoted bool
}

// expandSections expands a word whose quoting runs carry different rules:
// literal runs pass through, double-quoted runs expand without splitting,
// and plain runs expand with field splitting. A split inside a plain run
// starts a new field; quoted text glues to whichever field it sits against.
func (c *execContext) expandSections(tok Token) ([]string, error) {
	var fields [][]wordFrag
	var cur []wordFrag
	flush := func() {
		if len(cur) > 0 {
			fields = append(fields, cur)
			cur = nil
		}
	}

	for _, sec := range tok.sections {
		switch sec.kind {
		case secLiteral:
			cur = append(cur, wordFrag{text: sec.text, quoted: true})

		case secDouble:
			expanded, err := c.expandString(sec.text)
			if err != nil {
				return nil, err
			}
			cur = append(cur, wordFrag{text: expanded, quoted: true})

		default: // secPlain
			expanded, err := c.expandString(sec.text)
			if err != nil {
				return nil, err
			}
			if expanded == "" {
				continue
			}
			if isBlank(expanded[0]) {
				flush()
			}
			for i, part := range strings.Fields(expanded) {
				if i > 0 {
					flush()
				}
				cur = append(cur, wordFrag{text: part})
			}
			if isBlank(expanded[len(expanded)-1]) {
				flush()
			}
		}
	}
	flush()

	var argv []string
	for _, frags := range fields {
		argv = append(argv, c.globFrags(frags)...)
	}
	return argv, nil
}

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// expandString substitutes $VAR, ${VAR}, positionals and $(…) command
// substitutions in s. Inner substitutions resolve first because each nested
// run re-enters the full expander.
func (c *execContext) expandString(s string) (string, error) {
	var out strings.Builder

	for i := 0; i < len(s); {
		ch := s[i]
		if ch != '$' {
			out.WriteByte(ch)
			i++
			continue
		}
		if i+1 >= len(s) {
			out.WriteByte('$')
			break
		}

		switch next := s[i+1]; {
		case next == '(':
			end := matchParen(s, i+1)
			if end < 0 {
				return "", syntaxErrorf(s[i:], "unmatched substitution parenthesis")
			}
			res, err := c.commandSubst(s[i+2 : end])
			if err != nil {
				return "", err
			}
			out.WriteString(res)
			i = end + 1

		case next == '{':
			close := strings.IndexByte(s[i+2:], '}')
			if close < 0 {
				return "", syntaxErrorf(s[i:], "unmatched ${")
			}
			val, err := c.lookupVar(s[i+2 : i+2+close])
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = i + 3 + close

		case next == '@' || next == '*' || next == '?' || next == '#' || isDigit(next):
			val, err := c.lookupVar(string(next))
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i += 2

		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			val, err := c.lookupVar(s[i+1 : j])
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = j

		default:
			out.WriteByte('$')
			i++
		}
	}

	return out.String(), nil
}

// lookupVar resolves one variable or positional-parameter name.
func (c *execContext) lookupVar(name string) (string, error) {
	switch {
	case name == "0":
		return c.params.zero, nil

	case len(name) > 0 && isAllDigits(name):
		n, err := strconv.Atoi(name)
		if err != nil || n < 1 {
			return "", nil
		}
		if n > len(c.params.args) {
			if c.flags.noUnset {
				return "", expandErrorf("$%s: unbound variable", name)
			}
			return "", nil
		}
		return c.params.args[n-1], nil

	case name == "@" || name == "*":
		return strings.Join(c.params.args, " "), nil

	case name == "?":
		return strconv.Itoa(c.lastExit), nil

	case name == "#":
		return strconv.Itoa(len(c.params.args)), nil

	default:
		if val, ok := c.env.LookupEnv(name); ok {
			return val, nil
		}
		if c.flags.noUnset {
			return "", expandErrorf("%s: unbound variable", name)
		}
		return "", nil
	}
}

// commandSubst runs a nested command line in an isolated child context and
// captures its stdout, stripping exactly one trailing newline.
func (c *execContext) commandSubst(src string) (string, error) {
	child := c.fork()
	buf := &bytes.Buffer{}
	child.stdout = buf
	child.runSource(src)
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var bracePattern = regexp.MustCompile(`\{(-?\d+)\.\.(-?\d+)\}`)

// expandBraces expands numeric {a..b} ranges into discrete fields. Ranges
// may count down and may nest with surrounding text.
func expandBraces(field string) []string {
	loc := bracePattern.FindStringSubmatchIndex(field)
	if loc == nil {
		return []string{field}
	}

	prefix := field[:loc[0]]
	suffix := field[loc[1]:]
	lo, err1 := strconv.Atoi(field[loc[2]:loc[3]])
	hi, err2 := strconv.Atoi(field[loc[4]:loc[5]])
	if err1 != nil || err2 != nil {
		return []string{field}
	}

	step := 1
	if hi < lo {
		step = -1
	}

	var out []string
	for n := lo; ; n += step {
		for _, rest := range expandBraces(suffix) {
			out = append(out, prefix+strconv.Itoa(n)+rest)
		}
		if n == hi {
			break
		}
	}
	return out
}

// matchParen returns the index of the parenthesis closing the one at
// openIdx, skipping quoted sections; -1 when unmatched.
func matchParen(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '\'', '"':
			quote := s[i]
			for i++; i < len(s) && s[i] != quote; i++ {
			}
			if i >= len(s) {
				return -1
			}
		case '\\':
			i++
		}
	}
	return -1
}

func isNameStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}
