package sh

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// builtinFunc runs inside the calling execution context so it can mutate
// shell state (directory, environment, flags) that spawned processes cannot.
type builtinFunc func(c *execContext, argv []string, stdin io.Reader, stdout, stderr io.Writer) int

var builtins = map[string]builtinFunc{
	"cd":     builtinCd,
	"exit":   builtinExit,
	"export": builtinExport,
	"unset":  builtinUnset,
	"set":    builtinSet,
	"true":   builtinTrue,
	"false":  builtinFalse,
	":":      builtinColon,
}

func builtinCd(c *execContext, argv []string, _ io.Reader, stdout, stderr io.Writer) int {
	var target string
	switch len(argv) {
	case 1:
		target, _ = c.env.LookupEnv("HOME")
		if target == "" {
			target = "/"
		}
	case 2:
		target = argv[1]
	default:
		fmt.Fprintln(stderr, "websh: cd: too many arguments")
		return 1
	}

	echo := false
	if target == "-" {
		old, ok := c.env.LookupEnv("OLDPWD")
		if !ok {
			fmt.Fprintln(stderr, "websh: cd: OLDPWD not set")
			return 1
		}
		target = old
		echo = true
	}

	dir := path.Clean(target)
	if !path.IsAbs(dir) {
		dir = path.Clean(path.Join(c.dir, dir))
	}

	stat, err := c.interp.host.FS().Stat(dir)
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "websh: cd: %s: no such file or directory\n", target)
		return 1
	case !stat.IsDir():
		fmt.Fprintf(stderr, "websh: cd: %s: not a directory\n", target)
		return 1
	}

	c.env.Setenv("OLDPWD", c.dir)
	c.env.Setenv("PWD", dir)
	c.dir = dir
	if echo {
		fmt.Fprintln(stdout, dir)
	}
	return 0
}

func builtinExit(c *execContext, argv []string, _ io.Reader, _ io.Writer, stderr io.Writer) int {
	code := c.lastExit
	if len(argv) > 1 {
		parsed, err := strconv.Atoi(argv[1])
		if err != nil {
			fmt.Fprintf(stderr, "websh: exit: %s: numeric argument required\n", argv[1])
			parsed = 2
		}
		code = parsed
	}
	c.exited = true
	c.exitCode = code
	return code
}

func builtinExport(c *execContext, argv []string, _ io.Reader, _ io.Writer, stderr io.Writer) int {
	code := 0
	for _, arg := range argv[1:] {
		parts := strings.SplitN(arg, "=", 2)
		if !identPattern.MatchString(parts[0]) {
			fmt.Fprintf(stderr, "websh: export: %s: not a valid identifier\n", parts[0])
			code = 1
			continue
		}
		// Every variable is exported in this model; a bare name is a no-op.
		if len(parts) == 2 {
			c.env.Setenv(parts[0], parts[1])
		}
	}
	return code
}

func builtinUnset(c *execContext, argv []string, _ io.Reader, _ io.Writer, _ io.Writer) int {
	for _, name := range argv[1:] {
		c.env.Unsetenv(name)
	}
	return 0
}

func builtinSet(c *execContext, argv []string, _ io.Reader, stdout, stderr io.Writer) int {
	if len(argv) == 1 {
		for _, entry := range c.env.Environ() {
			fmt.Fprintln(stdout, entry)
		}
		return 0
	}

	args := argv[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			fmt.Fprintf(stderr, "websh: set: %s: invalid option\n", arg)
			return 2
		}
		enable := arg[0] == '-'

		for _, flag := range arg[1:] {
			switch flag {
			case 'e':
				c.flags.errExit = enable
			case 'u':
				c.flags.noUnset = enable
			case 'o':
				i++
				if i >= len(args) {
					fmt.Fprintln(stderr, "websh: set: -o: option requires an argument")
					return 2
				}
				if args[i] != "pipefail" {
					fmt.Fprintf(stderr, "websh: set: %s: invalid option name\n", args[i])
					return 2
				}
				c.flags.pipefail = enable
			default:
				fmt.Fprintf(stderr, "websh: set: -%c: invalid option\n", flag)
				return 2
			}
		}
	}
	return 0
}

func builtinTrue(*execContext, []string, io.Reader, io.Writer, io.Writer) int {
	return 0
}

func builtinFalse(*execContext, []string, io.Reader, io.Writer, io.Writer) int {
	return 1
}

func builtinColon(*execContext, []string, io.Reader, io.Writer, io.Writer) int {
	return 0
}
