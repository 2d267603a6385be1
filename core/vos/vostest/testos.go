// Package vostest runs single commands against a deterministic virtual OS,
// in the manner of os/exec, for use in command tests.
package vostest

import (
	"bytes"
	"io"
	"time"

	"github.com/devpad/websh/core/vos"
)

// SingleProcessResolver resolves every lookup to the given process.
func SingleProcessResolver(process vos.ProcessFunc) vos.ProcessResolver {
	return func(string) vos.ProcessFunc {
		return process
	}
}

// NewDeterministicHost creates a host with an empty in-memory filesystem and
// a clock fixed at Go's reference time.
func NewDeterministicHost(resolver vos.ProcessResolver) *vos.Host {
	host := vos.NewHost(vos.NewMemFS(), "testhost", resolver)
	host.SetTimeSource(func() time.Time {
		return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
	})
	return host
}

// Cmd is similar to exec.Cmd.
type Cmd struct {
	// Process function.
	Process vos.ProcessFunc
	// Process arguments, the first argument should be the process name.
	Argv []string
	// If Dir is non-empty, the child changes into the directory before
	// creating the process.
	Dir string
	// If Env is non-nil, it gives the environment variables for the new
	// process in the form returned by Environ.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ExitStatus int

	// VOS is the process view; usable before Run to seed the filesystem.
	VOS vos.VOS

	Setup func(vos.VOS) error

	host *vos.Host
}

// Command builds a Cmd around the process, ready to Run.
func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	host := NewDeterministicHost(SingleProcessResolver(process))
	argv := append([]string{name}, arg...)
	return &Cmd{
		Process: process,
		Argv:    argv,
		VOS:     host.Spawn(process, name, argv, nil),
		host:    host,
	}
}

// CombinedOutput runs the command and returns its combined stdout and
// stderr.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Output runs the command and returns its stdout.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete. The exit code is
// reported through ExitStatus.
func (c *Cmd) Run() error {
	proc := c.host.Spawn(c.Process, c.Argv[0], c.Argv, &vos.ProcAttr{
		Dir:   c.Dir,
		Env:   c.Env,
		Files: vos.NewVIOAdapter(c.Stdin, c.Stdout, c.Stderr),
	})
	c.VOS = proc

	if c.Setup != nil {
		if err := c.Setup(proc); err != nil {
			return err
		}
	}

	c.ExitStatus = proc.Run()
	return nil
}
