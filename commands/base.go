// Package commands holds the built-in userland available to shell sessions.
// Every command is a vos.ProcessFunc operating purely on the virtual OS.
package commands

import (
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"

	"github.com/devpad/websh/core/vos"
)

// AllCommands holds every registered command keyed by bare name.
var AllCommands = make(map[string]vos.ProcessFunc)

// binDirs are the conventional locations commands resolve under when invoked
// by path.
var binDirs = []string{"/bin", "/usr/bin", "/sbin", "/usr/sbin"}

// addBinCmd registers a command, panicking on duplicate registration so
// collisions fail at startup rather than shadowing silently.
func addBinCmd(name string, cmd vos.ProcessFunc) {
	if _, exists := AllCommands[name]; exists {
		panic("duplicate command registration: " + name)
	}
	AllCommands[name] = cmd
}

// Resolver looks commands up by bare name or by conventional binary path.
func Resolver() vos.ProcessResolver {
	return func(name string) vos.ProcessFunc {
		if cmd, ok := AllCommands[name]; ok {
			return cmd
		}
		dir, base := path.Split(name)
		if dir == "" {
			return nil
		}
		for _, bin := range binDirs {
			if path.Clean(dir) == bin {
				return AllCommands[base]
			}
		}
		return nil
	}
}

// Names lists the registered command names in sorted order.
func Names() []string {
	var out []string
	for name := range AllCommands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// commandName is the display name for error messages, e.g. "cat" for
// "/bin/cat".
func commandName(virtOS vos.VOS) string {
	if args := virtOS.Args(); len(args) > 0 {
		return path.Base(args[0])
	}
	return "?"
}

// SimpleCommand wraps the common skeleton of a command: flag parsing with
// getopt, help output, and error reporting.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not. If this is non-nil when
	// Run() is called, then the default help flag isn't added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and always
	// runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(virtOS.Args(), nil)
	if err != nil && !s.NeverBail {
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)
		s.PrintHelp(virtOS.Stdout())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

// RunE is Run for callbacks that return an error; a non-nil error is
// reported on stderr prefixed with the command name and exits 1.
func (s *SimpleCommand) RunE(virtOS vos.VOS, callback func() error) int {
	return s.Run(virtOS, func() int {
		if err := callback(); err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", commandName(virtOS), err)
			return 1
		}
		return 0
	})
}

// RunEachFileOrStdin invokes the callback once per named file in order, or
// once with stdin when no files are given. "-" names stdin explicitly.
func (s *SimpleCommand) RunEachFileOrStdin(virtOS vos.VOS, files []string, callback func(name string, fd io.Reader) error) int {
	name := commandName(virtOS)

	if len(files) == 0 {
		if err := callback("-", virtOS.Stdin()); err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", name, err)
			return 1
		}
		return 0
	}

	exitCode := 0
	for _, file := range files {
		if file == "-" {
			if err := callback("-", virtOS.Stdin()); err != nil {
				fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", name, err)
				exitCode = 1
			}
			continue
		}

		fd, err := virtOS.Open(file)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %s: no such file or directory\n", name, file)
			exitCode = 1
			continue
		}
		err = callback(file, fd)
		fd.Close()
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", name, err)
			exitCode = 1
		}
	}
	return exitCode
}

// BytesToHuman formats a byte count the way ls -h does.
func BytesToHuman(bytes int64) string {
	for _, e := range []struct {
		unit  string
		power int64
	}{
		{"P", 1e15},
		{"T", 1e12},
		{"G", 1e9},
		{"M", 1e6},
		{"K", 1e3},
	} {
		quotient := bytes / e.power
		switch {
		case quotient == 0:
			continue
		case quotient > 10:
			return fmt.Sprintf("%d%s", quotient, e.unit)
		default:
			return fmt.Sprintf("%0.1f%s", float64(bytes)/float64(e.power), e.unit)
		}
	}

	return fmt.Sprintf("%d", bytes)
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter colorizes output per the conventional --color flag, falling
// back to the terminal state in auto mode.
type ColorPrinter struct {
	value  *string
	virtOS vos.VOS
}

// Init sets up the flag and virtual OS to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, virtOS vos.VOS) {
	c.virtOS = virtOS
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.virtOS.GetPTY().IsPTY
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
