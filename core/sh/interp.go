package sh

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/devpad/websh/core/vos"
)

// CommandRegistry lets the embedding application supply commands beyond the
// built-in set without the shell depending on their implementation. It is
// consulted before the built-in commands.
type CommandRegistry interface {
	// HasCommand reports whether the registry can run the named command.
	HasCommand(name string) bool
	// ExecuteCommand runs the command with the given arguments (not
	// including the command name) against the virtual OS.
	ExecuteCommand(name string, args []string, virtOS vos.VOS) int
}

// Options configures an Interpreter.
type Options struct {
	// FS is the virtual filesystem the shell runs over. Defaults to an
	// empty in-memory filesystem.
	FS vos.VFS

	// Hostname of the virtual machine.
	Hostname string

	// Env seeds the environment for every Run, in "key=value" form. No
	// host-OS environment is ever consumed.
	Env []string

	// WorkingDir is the initial working directory. Defaults to "/".
	WorkingDir string

	// Registry supplies application commands; may be nil.
	Registry CommandRegistry

	// Commands resolves the built-in command set; may be nil.
	Commands vos.ProcessResolver

	// ErrExit, NoUnset and Pipefail preset the corresponding `set` flags
	// for every Run.
	ErrExit  bool
	NoUnset  bool
	Pipefail bool
}

// Result is the outcome of one Run: captured output and the exit code of
// the last executed segment.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Interpreter runs shell command lines against a persistent virtual
// filesystem. It is safe to create once and call Run repeatedly; each Run
// gets an isolated execution context.
type Interpreter struct {
	host     *vos.Host
	opts     Options
	resolver vos.ProcessResolver
}

// New creates an interpreter over the given filesystem and command set.
func New(opts Options) *Interpreter {
	if opts.FS == nil {
		opts.FS = vos.NewMemFS()
	}
	if opts.WorkingDir == "" {
		opts.WorkingDir = "/"
	}
	resolver := opts.Commands
	if resolver == nil {
		resolver = func(string) vos.ProcessFunc { return nil }
	}

	return &Interpreter{
		host:     vos.NewHost(opts.FS, opts.Hostname, resolver),
		opts:     opts,
		resolver: resolver,
	}
}

// Host exposes the underlying virtual machine, mainly for seeding the
// filesystem in tests and for the REPL.
func (i *Interpreter) Host() *vos.Host {
	return i.host
}

// Run executes a command line or script body and returns its captured
// output. All internal errors are converted into a deterministic Result;
// Run never panics into the caller.
func (i *Interpreter) Run(ctx context.Context, commandLine string) (result Result) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "websh: internal error: %v\n", r)
			result = Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: 1}
		}
	}()

	ec := i.newContext(ctx, stdout, stderr)
	code := ec.runSource(commandLine)

	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}
}

// Session keeps shell state alive across Runs: working directory,
// variables, `set` flags and the exit status all persist from one command
// line to the next. The interactive shell is built on one of these.
type Session struct {
	ec *execContext
}

// NewSession creates a session writing to the given streams. A nil stdin
// reads as empty.
func (i *Interpreter) NewSession(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *Session {
	ec := i.newContext(ctx, stdout, stderr)
	if stdin != nil {
		ec.stdin = stdin
	}
	return &Session{ec: ec}
}

// SetArgs sets $0 and the positional parameters for subsequent Runs.
func (s *Session) SetArgs(zero string, args []string) {
	s.ec.params = positional{zero: zero, args: append([]string(nil), args...)}
}

// Run executes one command line or script body and returns its exit code.
// After the `exit` builtin runs, Exited reports true and further Runs are
// no-ops.
func (s *Session) Run(commandLine string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(s.ec.stderr, "websh: internal error: %v\n", r)
			code = 1
		}
	}()

	return s.ec.runSource(commandLine)
}

// Exited reports whether the session ran the `exit` builtin.
func (s *Session) Exited() bool {
	return s.ec.exited
}

// WorkingDir returns the session's current working directory.
func (s *Session) WorkingDir() string {
	return s.ec.dir
}

// Getenv returns the value of an environment variable in the session.
func (s *Session) Getenv(key string) string {
	return s.ec.env.Getenv(key)
}

func (i *Interpreter) newContext(ctx context.Context, stdout, stderr io.Writer) *execContext {
	return &execContext{
		interp: i,
		ctx:    ctx,
		env:    vos.NewMapEnvFromEnvList(i.opts.Env),
		dir:    i.opts.WorkingDir,
		params: positional{zero: "websh"},
		flags: shellFlags{
			errExit:  i.opts.ErrExit,
			noUnset:  i.opts.NoUnset,
			pipefail: i.opts.Pipefail,
		},
		stdin:  &bytes.Buffer{},
		stdout: stdout,
		stderr: stderr,
	}
}
