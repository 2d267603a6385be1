package vos

// PTY describes the terminal (if any) attached to the session. Commands use
// it for width-sensitive output and to decide whether color is appropriate.
type PTY struct {
	Width  int
	Height int
	Term   string
	IsPTY  bool
}

// VOS is the virtual OS surface a command runs against. It is the only
// boundary between command implementations and the rest of the application.
type VOS interface {
	VEnv
	VIO
	VFS

	// Args holds command line arguments, including the command as Args[0].
	Args() []string

	// Getpid returns the virtual process ID.
	Getpid() int

	// Getwd returns the working directory of the process.
	Getwd() string

	// Chdir changes the working directory, failing if the target doesn't
	// exist or is not a directory.
	Chdir(dir string) error

	// Hostname reports the virtual machine's host name.
	Hostname() string

	// LookPath searches the PATH directories for a file with the given
	// name. Names containing a slash resolve directly.
	LookPath(name string) (string, error)

	GetPTY() PTY

	// StartProcess forks a child process with its own environment, arguments
	// and streams. The filesystem is shared with the parent.
	StartProcess(name string, argv []string, attr *ProcAttr) (VOS, error)

	// Run executes the process to completion and returns its exit code.
	Run() int
}
