package sh

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SpecialFile tags sentinel paths the executor intercepts instead of
// resolving against real storage.
type SpecialFile int

const (
	SpecialNone SpecialFile = iota
	SpecialNull
	SpecialZero
	SpecialStdin
	SpecialStdout
	SpecialStderr
)

var specialFiles = map[string]SpecialFile{
	"/dev/null":   SpecialNull,
	"/dev/zero":   SpecialZero,
	"/dev/stdin":  SpecialStdin,
	"/dev/stdout": SpecialStdout,
	"/dev/stderr": SpecialStderr,
}

// RedirTarget is the destination of one redirection.
type RedirTarget struct {
	Path    string
	Append  bool
	Special SpecialFile
}

func newRedirTarget(path string, appendMode bool) *RedirTarget {
	return &RedirTarget{
		Path:    path,
		Append:  appendMode,
		Special: specialFiles[path],
	}
}

// Segment is one pipeline stage: its tokens, redirections and the operator
// linking it to the next segment.
type Segment struct {
	Tokens []Token

	// LogicalOp is "&&" or "||" when the *next* segment's execution depends
	// on this one's exit code; empty on the final segment.
	LogicalOp string

	StdinFile  *RedirTarget
	StdoutFile *RedirTarget
	StderrFile *RedirTarget

	// StderrToStdout is set by 2>&1 when fd 1 still points at the default
	// stdout stream.
	StderrToStdout bool
	// StdoutToStderr is the 1>&2 counterpart.
	StdoutToStderr bool

	// FdFiles holds redirections for descriptors other than 0-2.
	FdFiles map[int]*RedirTarget

	// PipeTo links this stage's stdout to the next stage's stdin.
	PipeTo *Segment
}

// lastStage returns the final stage of the pipeline rooted at s.
// Redirections attach only there.
func (s *Segment) lastStage() *Segment {
	cur := s
	for cur.PipeTo != nil {
		cur = cur.PipeTo
	}
	return cur
}

// ParsedLine is an ordered list of segments; execution order is list order.
type ParsedLine struct {
	Segments []*Segment
}

// Statement is one unit of a script: a command list, a loop, or a statement
// that failed to parse (kept so sibling statements still run).
type Statement interface {
	stmt()
}

// CommandStatement wraps a single parsed line.
type CommandStatement struct {
	Line *ParsedLine
}

// ForStatement is a `for VAR in LIST; do BODY; done` loop.
type ForStatement struct {
	Var   string
	Words []Token
	Body  []Statement
}

// BadStatement records a statement-local parse failure.
type BadStatement struct {
	Err  error
	Text string
}

func (*CommandStatement) stmt() {}
func (*ForStatement) stmt()     {}
func (*BadStatement) stmt()     {}

// Script is a parsed sequence of statements.
type Script struct {
	Statements []Statement
}

// ParseScript tokenizes and parses a whole command line or script body.
// Tokenizer errors are fatal; parse errors inside a single statement are
// recorded as BadStatements so siblings still execute.
func ParseScript(src string) (*Script, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	out := &Script{}
	for {
		st, ok := p.parseStatement()
		if !ok {
			break
		}
		out.Statements = append(out.Statements, st)
	}
	return out, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() Token {
	if p.eof() {
		return Token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) skipSeparators() {
	for !p.eof() && p.peek().isOp(";") {
		p.pos++
	}
}

// parseStatement parses the next statement; ok is false at end of input.
func (p *parser) parseStatement() (Statement, bool) {
	p.skipSeparators()
	if p.eof() {
		return nil, false
	}

	if p.peek().isKeyword("for") {
		return p.parseFor(), true
	}

	group := p.collectSimple()
	line, err := ParseLine(group)
	if err != nil {
		return &BadStatement{Err: err, Text: joinTokens(group)}, true
	}
	return &CommandStatement{Line: line}, true
}

// collectSimple gathers tokens up to the next statement separator.
func (p *parser) collectSimple() []Token {
	var group []Token
	for !p.eof() && !p.peek().isOp(";") {
		group = append(group, p.next())
	}
	return group
}

// parseFor parses `for VAR in WORD…; do BODY; done`. On a malformed header
// the parser resyncs past the matching done so the rest of the script still
// parses.
func (p *parser) parseFor() Statement {
	start := p.pos
	p.next() // for

	bad := func(msg string) Statement {
		p.resyncPastDone()
		return &BadStatement{
			Err:  syntaxErrorf(joinTokens(p.tokens[start:min(p.pos, len(p.tokens))]), msg),
			Text: "for",
		}
	}

	name := p.next()
	if name.Op || name.Quoting != QuotingPlain || !identPattern.MatchString(name.Text) {
		return bad("expected variable name after for")
	}
	if !p.peek().isKeyword("in") {
		return bad("expected in")
	}
	p.next()

	var words []Token
	for !p.eof() && !p.peek().isOp(";") && !p.peek().isKeyword("do") {
		words = append(words, p.next())
	}
	p.skipSeparators()
	if !p.peek().isKeyword("do") {
		return bad("expected do")
	}
	p.next()

	var body []Statement
	for {
		p.skipSeparators()
		if p.eof() {
			return bad("expected done")
		}
		if p.peek().isKeyword("done") {
			p.next()
			break
		}
		if p.peek().isKeyword("for") {
			body = append(body, p.parseFor())
			continue
		}
		group := p.collectSimple()
		line, err := ParseLine(group)
		if err != nil {
			body = append(body, &BadStatement{Err: err, Text: joinTokens(group)})
			continue
		}
		body = append(body, &CommandStatement{Line: line})
	}

	return &ForStatement{Var: name.Text, Words: words, Body: body}
}

// resyncPastDone skips tokens through the next done keyword, or to the end
// of input when the loop was never closed. Keywords count only in command
// position, so `echo done` inside the body does not end the resync early.
func (p *parser) resyncPastDone() {
	depth := 1
	cmdStart := true
	for !p.eof() {
		t := p.next()
		switch {
		case t.isOp(";"):
			cmdStart = true
			continue
		case t.isKeyword("do"):
			cmdStart = true
			continue
		case cmdStart && t.isKeyword("for"):
			depth++
		case cmdStart && t.isKeyword("done"):
			depth--
			if depth == 0 {
				return
			}
		}
		cmdStart = false
	}
}

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	redirPattern = regexp.MustCompile(`^(\d*|&)(>>|>|<)(?:&(\d+))?$`)
)

// ParseLine groups a statement's tokens into segments, attaching logical
// operators, pipes, and redirections.
func ParseLine(tokens []Token) (*ParsedLine, error) {
	line := &ParsedLine{}
	head := &Segment{} // current pipeline's first stage

	flush := func(trailingOp string) error {
		last := head.lastStage()
		if len(last.Tokens) == 0 && !last.hasRedirections() {
			if head == last && head.PipeTo == nil {
				return syntaxErrorf(trailingOp, "missing command")
			}
			return syntaxErrorf(trailingOp, "missing command after |")
		}
		head.LogicalOp = trailingOp
		line.Segments = append(line.Segments, head)
		head = &Segment{}
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if !tok.Op {
			head.lastStage().Tokens = append(head.lastStage().Tokens, tok)
			continue
		}

		switch tok.Text {
		case "&&", "||":
			if err := flush(tok.Text); err != nil {
				return nil, err
			}

		case "|":
			last := head.lastStage()
			if len(last.Tokens) == 0 {
				return nil, syntaxErrorf("|", "missing command before |")
			}
			next := &Segment{}
			// Redirections bind to the final stage of a pipeline; migrate
			// anything already attached.
			next.takeRedirectionsFrom(last)
			last.PipeTo = next

		default:
			match := redirPattern.FindStringSubmatch(tok.Text)
			if match == nil {
				return nil, syntaxErrorf(tok.Text, "malformed redirection")
			}
			consumed, err := applyRedirection(head.lastStage(), match, tokens, i)
			if err != nil {
				return nil, err
			}
			i += consumed
		}
	}

	// A trailing && or || leaves an empty segment with no command, which
	// flush reports as a parse error.
	if err := flush(""); err != nil {
		return nil, err
	}

	return line, nil
}

func (s *Segment) hasRedirections() bool {
	return s.StdinFile != nil || s.StdoutFile != nil || s.StderrFile != nil ||
		s.StderrToStdout || s.StdoutToStderr || len(s.FdFiles) > 0
}

func (s *Segment) takeRedirectionsFrom(prev *Segment) {
	s.StdinFile = prev.StdinFile
	s.StdoutFile = prev.StdoutFile
	s.StderrFile = prev.StderrFile
	s.StderrToStdout = prev.StderrToStdout
	s.StdoutToStderr = prev.StdoutToStderr
	s.FdFiles = prev.FdFiles

	prev.StdinFile = nil
	prev.StdoutFile = nil
	prev.StderrFile = nil
	prev.StderrToStdout = false
	prev.StdoutToStderr = false
	prev.FdFiles = nil
}

// applyRedirection attaches one parsed redirection operator to the segment.
// It returns how many extra tokens (the target word) were consumed.
func applyRedirection(seg *Segment, match []string, tokens []Token, pos int) (int, error) {
	fdPart, op, dupPart := match[1], match[2], match[3]

	// &> and &>> redirect both stdout and stderr.
	if fdPart == "&" {
		target, err := redirTargetWord(tokens, pos, op == ">>")
		if err != nil {
			return 0, err
		}
		seg.StdoutFile = target
		seg.StderrFile = target
		return 1, nil
	}

	fd := 1
	if op == "<" {
		fd = 0
	}
	if fdPart != "" {
		parsed, err := strconv.Atoi(fdPart)
		if err != nil || parsed > 9 {
			return 0, syntaxErrorf(tokens[pos].Text, "bad file descriptor")
		}
		fd = parsed
	}

	// N>&M duplicates: fd N now targets whatever fd M resolves to at this
	// point in the parse.
	if dupPart != "" {
		src, err := strconv.Atoi(dupPart)
		if err != nil {
			return 0, syntaxErrorf(tokens[pos].Text, "bad file descriptor")
		}
		return 0, seg.duplicateFd(fd, src, tokens[pos].Text)
	}

	target, err := redirTargetWord(tokens, pos, op == ">>")
	if err != nil {
		return 0, err
	}

	switch {
	case fd == 0 || op == "<":
		seg.StdinFile = target
	case fd == 1:
		seg.StdoutFile = target
		seg.StdoutToStderr = false
	case fd == 2:
		seg.StderrFile = target
		seg.StderrToStdout = false
	default:
		if seg.FdFiles == nil {
			seg.FdFiles = make(map[int]*RedirTarget)
		}
		seg.FdFiles[fd] = target
	}
	return 1, nil
}

// redirTargetWord consumes the word following a redirection operator.
func redirTargetWord(tokens []Token, pos int, appendMode bool) (*RedirTarget, error) {
	if pos+1 >= len(tokens) || tokens[pos+1].Op {
		return nil, syntaxErrorf(tokens[pos].Text, "missing redirection target")
	}
	next := tokens[pos+1]
	if next.Text == "" {
		return nil, syntaxErrorf(tokens[pos].Text, "empty redirection target")
	}
	return newRedirTarget(next.Text, appendMode), nil
}

// duplicateFd implements N>&M. The source descriptor is resolved against the
// redirections already parsed, not at execution time.
func (s *Segment) duplicateFd(fd, src int, opText string) error {
	resolve := func(n int) (*RedirTarget, bool) {
		switch n {
		case 1:
			return s.StdoutFile, true
		case 2:
			return s.StderrFile, true
		default:
			t, ok := s.FdFiles[n]
			return t, ok
		}
	}

	target, known := resolve(src)
	if !known && src > 2 {
		return syntaxErrorf(opText, "bad file descriptor %d", src)
	}

	switch fd {
	case 1:
		if src == 2 {
			s.StdoutToStderr = true
		}
		if target != nil {
			s.StdoutFile = target
		}
	case 2:
		if src == 1 {
			s.StderrToStdout = true
		}
		if target != nil {
			s.StderrFile = target
		}
	default:
		if target == nil {
			return syntaxErrorf(opText, "bad file descriptor %d", src)
		}
		if s.FdFiles == nil {
			s.FdFiles = make(map[int]*RedirTarget)
		}
		s.FdFiles[fd] = target
	}
	return nil
}

// String renders the segment (including pipeline stages) in canonical form.
// Re-parsing the canonical form yields an equivalent segment.
func (s *Segment) String() string {
	var out strings.Builder

	for stage := s; stage != nil; stage = stage.PipeTo {
		if stage != s {
			out.WriteString(" | ")
		}
		out.WriteString(joinTokens(stage.Tokens))
	}

	last := s.lastStage()
	writeTarget := func(prefix string, t *RedirTarget) {
		op := ">"
		if t.Append {
			op = ">>"
		}
		fmt.Fprintf(&out, " %s%s %s", prefix, op, t.Path)
	}

	if last.StdinFile != nil {
		fmt.Fprintf(&out, " < %s", last.StdinFile.Path)
	}

	// A dup parsed before the stdout file keeps stderr on the default stream;
	// render it first so re-parsing preserves the resolution order.
	dupBeforeStdout := last.StderrToStdout && last.StderrFile == nil && last.StdoutFile != nil
	if dupBeforeStdout {
		out.WriteString(" 2>&1")
	}
	if last.StdoutFile != nil {
		writeTarget("", last.StdoutFile)
	}
	if last.StderrFile != nil && last.StderrFile != last.StdoutFile {
		writeTarget("2", last.StderrFile)
	}
	switch {
	case last.StderrFile != nil && last.StderrFile == last.StdoutFile:
		out.WriteString(" 2>&1")
	case last.StderrToStdout && !dupBeforeStdout:
		out.WriteString(" 2>&1")
	}
	if last.StdoutToStderr {
		out.WriteString(" 1>&2")
	}

	var fds []int
	for fd := range last.FdFiles {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	for _, fd := range fds {
		writeTarget(strconv.Itoa(fd), last.FdFiles[fd])
	}

	return out.String()
}

// String renders the whole line in canonical form.
func (pl *ParsedLine) String() string {
	var out strings.Builder
	for i, seg := range pl.Segments {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(seg.String())
		if seg.LogicalOp != "" {
			out.WriteString(" " + seg.LogicalOp)
		}
	}
	return out.String()
}
