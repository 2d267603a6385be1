package sh

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/devpad/websh/core/vos"
)

var assignPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// runSource parses and runs one command line or script body in this context.
func (c *execContext) runSource(src string) int {
	script, err := ParseScript(src)
	if err != nil {
		fmt.Fprintf(c.stderr, "websh: %v\n", err)
		c.lastExit = 2
		return 2
	}
	return c.runStatements(script.Statements)
}

// runStatements executes statements in order, honoring exit, set -e, and
// cancellation. The return value is the exit code of the last statement run.
func (c *execContext) runStatements(stmts []Statement) int {
	code := 0
	for _, st := range stmts {
		if c.exited {
			return c.exitCode
		}
		if c.cancelled() {
			fmt.Fprintln(c.stderr, "websh: interrupted")
			c.exited = true
			c.exitCode = 130
			return 130
		}

		code = c.runStatement(st)
		if c.exited {
			return c.exitCode
		}
		if c.flags.errExit && code != 0 {
			c.exited = true
			c.exitCode = code
			return code
		}
	}
	return code
}

func (c *execContext) runStatement(st Statement) int {
	switch st := st.(type) {
	case *CommandStatement:
		return c.runLine(st.Line)
	case *ForStatement:
		return c.runFor(st)
	case *BadStatement:
		// Parse errors are local to their statement; siblings still run.
		fmt.Fprintf(c.stderr, "websh: %v\n", st.Err)
		c.lastExit = 2
		return 2
	default:
		return 0
	}
}

// runFor iterates a for loop. The loop variable is a plain environment
// variable and remains set after the loop, matching POSIX shells.
func (c *execContext) runFor(st *ForStatement) int {
	words, err := c.expandTokens(st.Words)
	if err != nil {
		return c.expandFailed(err)
	}

	code := 0
	for _, word := range words {
		if c.exited || c.cancelled() {
			break
		}
		c.env.Setenv(st.Var, word)
		code = c.runStatements(st.Body)
		if c.exited {
			return c.exitCode
		}
	}
	return code
}

// runLine executes a statement's segments left to right, skipping segments
// whose && or || guard is not met.
func (c *execContext) runLine(line *ParsedLine) int {
	code := 0
	for i, seg := range line.Segments {
		if i > 0 {
			op := line.Segments[i-1].LogicalOp
			if (op == "&&" && code != 0) || (op == "||" && code == 0) {
				continue
			}
		}
		code = c.runPipeline(seg)
		c.lastExit = code
		if c.exited {
			return c.exitCode
		}
	}
	return code
}

// runPipeline runs one pipeline. Stages stream concurrently through in-memory
// pipes; multi-stage pipelines run each stage in a forked context, so state
// changes inside a pipeline do not leak out, as in other shells.
func (c *execContext) runPipeline(head *Segment) int {
	var stages []*Segment
	for s := head; s != nil; s = s.PipeTo {
		stages = append(stages, s)
	}
	last := stages[len(stages)-1]

	stdin, stdout, stderr, cleanup, err := c.openRedirections(last)
	if err != nil {
		fmt.Fprintf(c.stderr, "websh: %v\n", err)
		return 1
	}
	defer cleanup()

	if len(stages) == 1 {
		return c.runSegment(head, stdin, stdout, stderr)
	}

	codes := make([]int, len(stages))
	forks := make([]*execContext, len(stages))
	readers := make([]*io.PipeReader, 0, len(stages)-1)
	var wg sync.WaitGroup

	in := stdin
	for i := 0; i < len(stages)-1; i++ {
		pr, pw := io.Pipe()
		readers = append(readers, pr)

		stage := c.fork()
		forks[i] = stage
		seg, stageIn, idx := stages[i], in, i
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pw.Close()
			codes[idx] = stage.runSegment(seg, stageIn, pw, stderr)
		}()
		in = pr
	}

	finalStage := c.fork()
	forks[len(stages)-1] = finalStage
	codes[len(stages)-1] = finalStage.runSegment(last, in, stdout, stderr)

	// If the final stage stopped reading early, unblock upstream writers.
	for _, pr := range readers {
		pr.CloseWithError(io.ErrClosedPipe)
	}
	wg.Wait()

	// An exit builtin inside a stage stays in its fork, but a fatal expansion
	// failure stops the whole run.
	for _, stage := range forks {
		if stage.aborted {
			c.exited = true
			c.exitCode = stage.exitCode
			c.aborted = true
			return stage.exitCode
		}
	}

	code := codes[len(codes)-1]
	if c.flags.pipefail {
		for _, stageCode := range codes {
			if stageCode != 0 {
				code = stageCode
			}
		}
	}
	return code
}

// runSegment expands one segment's tokens and dispatches the command.
func (c *execContext) runSegment(seg *Segment, stdin io.Reader, stdout, stderr io.Writer) int {
	if c.cancelled() {
		return 130
	}

	argv, err := c.expandTokens(seg.Tokens)
	if err != nil {
		fmt.Fprintf(stderr, "websh: %v\n", err)
		return c.expandFailedCode(err)
	}

	// Leading NAME=value words are environment assignments. With no command
	// following they mutate the current context; otherwise they apply only to
	// the spawned process.
	var assigns []string
	for len(argv) > 0 && assignPattern.MatchString(argv[0]) {
		assigns = append(assigns, argv[0])
		argv = argv[1:]
	}
	if len(argv) == 0 {
		for _, def := range assigns {
			parts := strings.SplitN(def, "=", 2)
			c.env.Setenv(parts[0], parts[1])
		}
		return 0
	}

	return c.runCommand(argv, assigns, stdin, stdout, stderr)
}

// expandFailed reports an expansion error against the context's own stderr.
func (c *execContext) expandFailed(err error) int {
	fmt.Fprintf(c.stderr, "websh: %v\n", err)
	return c.expandFailedCode(err)
}

// expandFailedCode maps an expansion failure to its exit code. Unbound
// variable references under set -u abort the whole run.
func (c *execContext) expandFailedCode(err error) int {
	var expErr *ExpandError
	if errors.As(err, &expErr) {
		c.exited = true
		c.exitCode = 1
		c.aborted = true
		return 1
	}
	c.lastExit = 2
	return 2
}

// runCommand dispatches argv[0]: shell builtins first, then the embedding
// application's registry, then the script interpreter names, then the
// resolved command set.
func (c *execContext) runCommand(argv, assigns []string, stdin io.Reader, stdout, stderr io.Writer) int {
	name := argv[0]

	if fn, ok := builtins[name]; ok {
		return fn(c, argv, stdin, stdout, stderr)
	}

	envList := append(c.env.Environ(), assigns...)
	attr := &vos.ProcAttr{
		Dir:   c.dir,
		Env:   envList,
		Files: vos.NewVIOAdapter(stdin, stdout, stderr),
	}

	if reg := c.interp.opts.Registry; reg != nil && reg.HasCommand(name) {
		proc := c.interp.host.Spawn(func(virtOS vos.VOS) int {
			return reg.ExecuteCommand(name, argv[1:], virtOS)
		}, name, argv, attr)
		return proc.Run()
	}

	switch name {
	case "sh", "bash", "websh":
		return c.runScriptFile(argv, stdin, stdout, stderr)
	}

	if exec := c.interp.resolver(name); exec != nil {
		proc := c.interp.host.Spawn(exec, name, argv, attr)
		return proc.Run()
	}

	fmt.Fprintf(stderr, "websh: %s: command not found\n", name)
	return 127
}

// openRedirections resolves a segment's redirections into concrete streams.
// The returned cleanup closes any files that were opened.
func (c *execContext) openRedirections(seg *Segment) (stdin io.Reader, stdout, stderr io.Writer, cleanup func(), err error) {
	stdin, stdout, stderr = c.stdin, c.stdout, c.stderr

	var closers []io.Closer
	cleanup = func() {
		for _, cl := range closers {
			cl.Close()
		}
	}
	fail := func(e error) (io.Reader, io.Writer, io.Writer, func(), error) {
		cleanup()
		return nil, nil, nil, func() {}, e
	}

	openWriter := func(t *RedirTarget) (io.Writer, error) {
		switch t.Special {
		case SpecialNull, SpecialZero:
			return io.Discard, nil
		case SpecialStdout:
			return c.stdout, nil
		case SpecialStderr:
			return c.stderr, nil
		}
		flags := os.O_WRONLY | os.O_CREATE
		if t.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := c.fs().OpenFile(t.Path, flags, 0644)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", t.Path, err)
		}
		closers = append(closers, f)
		return f, nil
	}

	if t := seg.StdinFile; t != nil {
		switch t.Special {
		case SpecialNull:
			stdin = strings.NewReader("")
		case SpecialZero:
			stdin = zeroReader{}
		case SpecialStdin:
			stdin = c.stdin
		case SpecialStdout, SpecialStderr:
			return fail(fmt.Errorf("%s: not readable", t.Path))
		default:
			f, err := c.fs().Open(t.Path)
			if err != nil {
				return fail(fmt.Errorf("%s: no such file or directory", t.Path))
			}
			closers = append(closers, f)
			stdin = f
		}
	}

	if seg.StdoutFile != nil {
		w, err := openWriter(seg.StdoutFile)
		if err != nil {
			return fail(err)
		}
		stdout = w
	}

	switch {
	case seg.StderrFile != nil && seg.StderrFile == seg.StdoutFile:
		// &> or 2>&1 after a file redirection: both streams share one writer.
		stderr = stdout
	case seg.StderrFile != nil:
		w, err := openWriter(seg.StderrFile)
		if err != nil {
			return fail(err)
		}
		stderr = w
	case seg.StderrToStdout:
		// Resolved when the dup was parsed: fd 1 still meant the run's
		// stdout, so a later `> file` does not drag stderr along.
		stderr = c.stdout
	}

	if seg.StdoutToStderr && seg.StdoutFile == nil {
		stdout = c.stderr
	}

	// Descriptors beyond 0-2 have no stream in this model; opening the target
	// still creates or truncates it so the side effect is observable.
	for _, t := range seg.FdFiles {
		if _, err := openWriter(t); err != nil {
			return fail(err)
		}
	}

	return stdin, stdout, stderr, cleanup, nil
}

// zeroReader is the /dev/zero source: an endless stream of NUL bytes.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
