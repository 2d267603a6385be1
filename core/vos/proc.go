package vos

import (
	"fmt"
	"path"
	"strings"
	"sync/atomic"
	"time"
)

// ProcessFunc is a "process" that can be run against a virtual OS.
type ProcessFunc func(VOS) int

// ProcessResolver looks up a fake process by name or path. It returns nil if
// no process was found.
type ProcessResolver func(name string) ProcessFunc

// TimeSource produces the current virtual time. Tests substitute a fixed one.
type TimeSource func() time.Time

// Host is the machine every virtual process runs on. It owns the shared
// filesystem, the PID counter, and the process table. All processes created
// from one Host observe the same filesystem.
type Host struct {
	fs       VFS
	hostname string
	resolver ProcessResolver
	now      TimeSource
	nextPID  int32
	pty      PTY
}

// NewHost creates a virtual machine around the given filesystem.
func NewHost(fs VFS, hostname string, resolver ProcessResolver) *Host {
	return &Host{
		fs:       fs,
		hostname: hostname,
		resolver: resolver,
		now:      time.Now,
	}
}

// SetTimeSource overrides the host clock, usually with a fixed time in tests.
func (h *Host) SetTimeSource(now TimeSource) {
	h.now = now
}

// SetPTY attaches terminal information to the host.
func (h *Host) SetPTY(pty PTY) {
	h.pty = pty
}

// FS returns the host's shared filesystem.
func (h *Host) FS() VFS {
	return h.fs
}

// Now returns the host's current time.
func (h *Host) Now() time.Time {
	return h.now()
}

// NextPID gets a monotonically increasing PID.
func (h *Host) NextPID() int {
	return int(atomic.AddInt32(&h.nextPID, 1))
}

// InitProc creates the first process on the host: PID 1, rooted at /, with
// null I/O and an empty environment.
func (h *Host) InitProc() *ProcOS {
	p := &ProcOS{
		host:           h,
		VEnv:           NewMapEnv(),
		VIO:            NewNullIO(),
		ExecutablePath: "/sbin/init",
		ProcArgs:       []string{"/sbin/init"},
		PID:            h.NextPID(),
		Dir:            "/",
		Exec:           func(VOS) int { return 0 },
	}
	p.VFS = NewRelativeFS(h.fs, p.Getwd)
	return p
}

// ProcOS is one virtual process: a view of the host with its own environment,
// arguments, streams and working directory.
type ProcOS struct {
	host *Host

	VEnv
	VFS
	VIO

	// Path to the executable that started the process.
	ExecutablePath string
	// ProcArgs holds command line arguments, including the command as
	// ProcArgs[0].
	ProcArgs []string
	// The process ID of the process.
	PID int
	// Dir is the working directory of the process.
	Dir string
	// Exec is the function backing this process.
	Exec ProcessFunc
}

var _ VOS = (*ProcOS)(nil)

// Args implements VOS.Args.
func (p *ProcOS) Args() []string {
	return p.ProcArgs
}

// Getpid implements VOS.Getpid.
func (p *ProcOS) Getpid() int {
	return p.PID
}

// Getwd implements VOS.Getwd.
func (p *ProcOS) Getwd() string {
	return p.Dir
}

// Hostname implements VOS.Hostname.
func (p *ProcOS) Hostname() string {
	return p.host.hostname
}

// GetPTY implements VOS.GetPTY.
func (p *ProcOS) GetPTY() PTY {
	return p.host.pty
}

// Now returns the host's current virtual time.
func (p *ProcOS) Now() time.Time {
	return p.host.Now()
}

// LookPath implements VOS.LookPath. Plain names are searched through the
// PATH directories; names with a slash resolve directly.
func (p *ProcOS) LookPath(name string) (string, error) {
	if strings.Contains(name, "/") {
		if _, err := p.Stat(name); err != nil {
			return "", fmt.Errorf("%s: no such file or directory", name)
		}
		return name, nil
	}

	for _, dir := range strings.Split(p.Getenv("PATH"), ":") {
		if dir == "" {
			continue
		}
		candidate := path.Join(dir, name)
		if stat, err := p.Stat(candidate); err == nil && !stat.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: command not found", name)
}

// Chdir implements VOS.Chdir.
func (p *ProcOS) Chdir(dir string) error {
	if !path.IsAbs(dir) {
		dir = path.Clean(path.Join(p.Dir, dir))
	}

	stat, err := p.Stat(dir)
	switch {
	case err != nil:
		return fmt.Errorf("%s: no such file or directory", dir)
	case !stat.IsDir():
		return fmt.Errorf("%s: not a directory", dir)
	default:
		p.Dir = dir
		return nil
	}
}

// ProcAttr holds the attributes that StartProcess applies to a new process.
type ProcAttr struct {
	// If Dir is non-empty, the child changes into the directory before
	// starting.
	Dir string
	// If Env is non-nil, it gives the environment variables for the new
	// process in the form returned by Environ. If it is nil, the parent's
	// environment is copied.
	Env []string
	// Files specifies the open streams inherited by the new process.
	Files VIO
}

// StartProcess implements VOS.StartProcess. The child shares the host
// filesystem but gets copy-on-branch snapshots of everything else.
func (p *ProcOS) StartProcess(name string, argv []string, attr *ProcAttr) (VOS, error) {
	if attr == nil {
		attr = &ProcAttr{}
	}
	if argv == nil {
		argv = []string{name}
	}

	exec := p.host.resolver(name)
	if exec == nil {
		return nil, fmt.Errorf("%s: command not found", name)
	}

	var env VEnv
	if attr.Env == nil {
		env = NewMapEnvFrom(p.VEnv)
	} else {
		env = NewMapEnvFromEnvList(attr.Env)
	}

	out := &ProcOS{
		host:           p.host,
		VEnv:           env,
		ExecutablePath: name,
		ProcArgs:       argv,
		PID:            p.host.NextPID(),
		Dir:            p.Dir,
		Exec:           exec,
	}
	out.VFS = NewRelativeFS(p.host.fs, out.Getwd)

	if attr.Files == nil {
		out.VIO = NewNullIO()
	} else {
		out.VIO = attr.Files
	}

	if attr.Dir != "" {
		if err := out.Chdir(attr.Dir); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Run implements VOS.Run.
func (p *ProcOS) Run() int {
	return p.Exec(p)
}

// Spawn creates a process backed directly by exec, bypassing resolver
// lookup. Callers that already hold a ProcessFunc (or wrap an external
// command source) use this instead of StartProcess.
func (h *Host) Spawn(exec ProcessFunc, name string, argv []string, attr *ProcAttr) *ProcOS {
	if attr == nil {
		attr = &ProcAttr{}
	}
	if argv == nil {
		argv = []string{name}
	}

	p := &ProcOS{
		host:           h,
		VEnv:           NewMapEnvFromEnvList(attr.Env),
		ExecutablePath: name,
		ProcArgs:       argv,
		PID:            h.NextPID(),
		Dir:            "/",
		Exec:           exec,
	}
	p.VFS = NewRelativeFS(h.fs, p.Getwd)

	if attr.Files == nil {
		p.VIO = NewNullIO()
	} else {
		p.VIO = attr.Files
	}
	if attr.Dir != "" {
		p.Dir = attr.Dir
	}
	return p
}
