package sh

import "strings"

// Tokenize converts one line or script body into a stream of word and
// operator tokens. Newlines are normalized to the ";" statement separator so
// the parser sees a uniform stream.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src}
	var tokens []Token

	for {
		sawSpace := l.skipBlanks()
		if l.eof() {
			return tokens, nil
		}

		switch ch := l.peek(); {
		case ch == '\n' || ch == ';':
			l.next()
			tokens = append(tokens, opToken(";", sawSpace))

		case ch == '#':
			l.skipComment()

		case ch == '&':
			if l.peekAt(1) == '&' {
				l.advance(2)
				tokens = append(tokens, opToken("&&", sawSpace))
				break
			}
			if l.peekAt(1) == '>' {
				op, err := l.scanRedirOp("&")
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, opToken(op, sawSpace))
				break
			}
			return nil, syntaxErrorf(l.context(), "unsupported operator %q", "&")

		case ch == '|':
			if l.peekAt(1) == '|' {
				l.advance(2)
				tokens = append(tokens, opToken("||", sawSpace))
			} else {
				l.next()
				tokens = append(tokens, opToken("|", sawSpace))
			}

		case ch == '>' || ch == '<':
			op, err := l.scanRedirOp("")
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, opToken(op, sawSpace))

		case isDigit(ch) && l.redirFollowsDigits():
			fd := l.scanDigits()
			op, err := l.scanRedirOp(fd)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, opToken(op, sawSpace))

		default:
			tok, err := l.scanWord(sawSpace)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) next() byte {
	ch := l.peek()
	l.pos++
	return ch
}

func (l *lexer) advance(n int) {
	l.pos += n
}

// context returns a short window of the remaining input for error messages.
func (l *lexer) context() string {
	rest := l.src[min(l.pos, len(l.src)):]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[:idx]
	}
	if len(rest) > 40 {
		rest = rest[:40]
	}
	return rest
}

// skipBlanks consumes spaces and tabs, reporting whether any were seen.
// Newlines are significant and left alone.
func (l *lexer) skipBlanks() bool {
	saw := false
	for !l.eof() {
		if ch := l.peek(); ch == ' ' || ch == '\t' || ch == '\r' {
			l.pos++
			saw = true
			continue
		}
		break
	}
	return saw
}

func (l *lexer) skipComment() {
	for !l.eof() && l.peek() != '\n' {
		l.pos++
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// redirFollowsDigits reports whether the run of digits at the cursor is
// immediately followed by a redirection character, making it an fd prefix
// ("2>") rather than a word ("2 ").
func (l *lexer) redirFollowsDigits() bool {
	i := l.pos
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	return i < len(l.src) && (l.src[i] == '>' || l.src[i] == '<')
}

func (l *lexer) scanDigits() string {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.pos++
	}
	return l.src[start:l.pos]
}

// scanRedirOp consumes a redirection operator at the cursor. The prefix is
// the already-consumed fd digits or "&" for the combined &>/&>> forms.
func (l *lexer) scanRedirOp(prefix string) (string, error) {
	if prefix == "&" {
		l.next() // consume &
	}

	switch l.peek() {
	case '>':
		op := ">"
		l.next()
		if l.peek() == '>' {
			l.next()
			op = ">>"
		} else if l.peek() == '&' {
			l.next()
			digits := l.scanDigits()
			if digits == "" {
				return "", syntaxErrorf(l.context(), "expected file descriptor after %q", prefix+">&")
			}
			return prefix + ">&" + digits, nil
		}
		return prefix + op, nil

	case '<':
		l.next()
		if l.peek() == '<' {
			return "", syntaxErrorf(l.context(), "heredocs are not supported")
		}
		return prefix + "<", nil

	default:
		return "", syntaxErrorf(l.context(), "malformed redirection")
	}
}

// scanWord consumes one word, stitching together adjacent quoted and
// unquoted sections.
func (l *lexer) scanWord(spaceBefore bool) (Token, error) {
	var text strings.Builder
	var hasSingle, hasDouble, hasPlain bool
	var noExpand, noGlob bool
	sections := 0

	// Quoting runs in source order; adjacent runs of the same kind merge.
	var secs []wordSection
	addSec := func(kind sectionKind, s string) {
		if n := len(secs); n > 0 && secs[n-1].kind == kind {
			secs[n-1].text += s
			return
		}
		secs = append(secs, wordSection{text: s, kind: kind})
	}

	// Track whether the word is exactly one $(…)/`…` section; those become
	// substitution tokens holding the inner command line.
	var wholeSubst string
	onlySubst := false

	for !l.eof() {
		ch := l.peek()
		if isWordBoundary(ch) {
			break
		}

		switch ch {
		case '\'':
			l.next()
			content, err := l.consumeUntilQuote('\'')
			if err != nil {
				return Token{}, err
			}
			text.WriteString(content)
			addSec(secLiteral, content)
			hasSingle = true
			if strings.ContainsAny(content, "$`") {
				noExpand = true
			}
			if strings.ContainsAny(content, "*?[{") {
				noGlob = true
			}
			sections++

		case '"':
			l.next()
			content, err := l.consumeDoubleQuoted()
			if err != nil {
				return Token{}, err
			}
			text.WriteString(content)
			addSec(secDouble, content)
			hasDouble = true
			sections++

		case '\\':
			l.next()
			if l.eof() {
				text.WriteByte('\\')
				addSec(secLiteral, `\`)
				hasPlain = true
				sections++
				break
			}
			esc := l.next()
			if esc == '$' || esc == '`' {
				noExpand = true
			}
			if esc == '*' || esc == '?' || esc == '[' || esc == '{' {
				noGlob = true
			}
			text.WriteByte(esc)
			addSec(secLiteral, string(esc))
			hasPlain = true
			sections++

		case '`':
			l.next()
			inner, err := l.consumeUntilQuote('`')
			if err != nil {
				return Token{}, err
			}
			sections++
			if text.Len() == 0 && l.atWordEnd() && sections == 1 {
				wholeSubst = inner
				onlySubst = true
				break
			}
			text.WriteString("$(" + inner + ")")
			addSec(secPlain, "$("+inner+")")
			hasPlain = true

		case '$':
			if l.peekAt(1) == '(' {
				l.advance(2)
				inner, err := l.consumeParens()
				if err != nil {
					return Token{}, err
				}
				sections++
				if text.Len() == 0 && l.atWordEnd() && sections == 1 {
					wholeSubst = inner
					onlySubst = true
					break
				}
				text.WriteString("$(" + inner + ")")
				addSec(secPlain, "$("+inner+")")
				hasPlain = true
				break
			}
			l.next()
			text.WriteByte('$')
			addSec(secPlain, "$")
			hasPlain = true
			sections++

		default:
			l.next()
			text.WriteByte(ch)
			addSec(secPlain, string(ch))
			hasPlain = true
			sections++
		}

		if onlySubst {
			break
		}
	}

	if onlySubst {
		return word(wholeSubst, QuotingSubstitution, spaceBefore), nil
	}

	quoting := QuotingPlain
	switch {
	case hasDouble:
		quoting = QuotingDouble
	case hasSingle && !hasPlain:
		quoting = QuotingSingle
	}

	tok := word(text.String(), quoting, spaceBefore)
	tok.noExpand = noExpand
	tok.noGlob = noGlob
	tok.sections = secs
	return tok, nil
}

func isWordBoundary(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', ';', '|', '&', '<', '>':
		return true
	}
	return false
}

// atWordEnd reports whether the cursor sits at a word boundary or EOF.
func (l *lexer) atWordEnd() bool {
	return l.eof() || isWordBoundary(l.peek())
}

// consumeUntilQuote copies text until the closing quote character, which is
// consumed but not included.
func (l *lexer) consumeUntilQuote(quote byte) (string, error) {
	start := l.pos
	for !l.eof() {
		if l.peek() == quote {
			content := l.src[start:l.pos]
			l.next()
			return content, nil
		}
		l.next()
	}
	return "", syntaxErrorf(l.src[start:], "unterminated %q", string(quote))
}

// consumeDoubleQuoted copies the inside of a double-quoted section. Embedded
// $(…) markers are kept verbatim so the expander can still recognize them;
// backticks are rewritten to the $(…) form.
func (l *lexer) consumeDoubleQuoted() (string, error) {
	var out strings.Builder
	start := l.pos

	for !l.eof() {
		switch ch := l.peek(); ch {
		case '"':
			l.next()
			return out.String(), nil

		case '\\':
			l.next()
			if l.eof() {
				out.WriteByte('\\')
				break
			}
			esc := l.next()
			switch esc {
			case '"', '\\', '$', '`':
				out.WriteByte(esc)
			default:
				// Backslash is literal before other characters.
				out.WriteByte('\\')
				out.WriteByte(esc)
			}

		case '`':
			l.next()
			inner, err := l.consumeUntilQuote('`')
			if err != nil {
				return "", err
			}
			out.WriteString("$(" + inner + ")")

		case '$':
			if l.peekAt(1) == '(' {
				l.advance(2)
				inner, err := l.consumeParens()
				if err != nil {
					return "", err
				}
				out.WriteString("$(" + inner + ")")
				break
			}
			l.next()
			out.WriteByte('$')

		default:
			l.next()
			out.WriteByte(ch)
		}
	}

	return "", syntaxErrorf(l.src[start:], "unterminated %q", `"`)
}

// consumeParens copies a balanced $(…) body. The cursor starts just past the
// opening paren; the matching close paren is consumed but not included.
// Nested substitutions and quoted sections are tracked so their parens don't
// end the scan early.
func (l *lexer) consumeParens() (string, error) {
	start := l.pos
	depth := 1

	for !l.eof() {
		switch ch := l.next(); ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return l.src[start : l.pos-1], nil
			}
		case '\'':
			if _, err := l.consumeUntilQuote('\''); err != nil {
				return "", err
			}
		case '"':
			if _, err := l.consumeDoubleQuoted(); err != nil {
				return "", err
			}
		case '\\':
			if !l.eof() {
				l.next()
			}
		}
	}

	return "", syntaxErrorf(l.src[start:], "unmatched substitution parenthesis")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
