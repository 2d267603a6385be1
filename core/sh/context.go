package sh

import (
	"context"
	"io"

	"github.com/devpad/websh/core/vos"
)

// shellFlags are the `set` options carried by an execution context. They are
// copied on branch, never shared, so nested and scripted invocations stay
// isolated.
type shellFlags struct {
	// errExit aborts the run on the first unguarded nonzero exit (set -e).
	errExit bool
	// noUnset makes references to unset variables fatal (set -u).
	noUnset bool
	// pipefail makes a pipeline's exit code its worst failing stage
	// (set -o pipefail).
	pipefail bool
}

// positional holds a script invocation's parameters: $0 and $1..$N.
type positional struct {
	zero string
	args []string
}

// execContext threads all mutable interpreter state through execution.
// Statements in one run share a context so `cd` and assignments persist;
// command substitutions and nested script runs get copy-on-branch children.
type execContext struct {
	interp *Interpreter
	ctx    context.Context

	env    *vos.MapEnv
	dir    string
	params positional
	flags  shellFlags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// lastExit is the exit code of the previously executed segment ($?).
	lastExit int

	// exitCode and exited record an `exit` builtin; they stop the
	// remaining statements of the run.
	exitCode int
	exited   bool

	// aborted marks a fatal expansion failure (set -u). Unlike exit, it
	// crosses pipeline stage boundaries back to the parent run.
	aborted bool
}

// fork snapshots the context for a nested invocation. The filesystem is
// shared; environment, directory, parameters and flags are copies, so
// sibling expansions cannot observe each other's partial state.
func (c *execContext) fork() *execContext {
	return &execContext{
		interp:   c.interp,
		ctx:      c.ctx,
		env:      vos.NewMapEnvFrom(c.env),
		dir:      c.dir,
		params:   c.params.clone(),
		flags:    c.flags,
		stdin:    c.stdin,
		stdout:   c.stdout,
		stderr:   c.stderr,
		lastExit: c.lastExit,
	}
}

func (p positional) clone() positional {
	out := positional{zero: p.zero}
	out.args = append([]string(nil), p.args...)
	return out
}

// fs returns a view of the host filesystem that resolves relative paths
// against this context's working directory.
func (c *execContext) fs() vos.VFS {
	return vos.NewRelativeFS(c.interp.host.FS(), func() string { return c.dir })
}

// cancelled reports whether the host abandoned this run.
func (c *execContext) cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}
