package sh

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// runScriptFile implements the script-interpreter command form:
//
//	sh FILE [ARG...]     run a script file with $0 bound to FILE
//	sh -c STRING [ARG...]  run an inline command string
//
// The script gets a forked context with fresh flags and its own positional
// parameters; its exit code is the code of the last statement, or the
// argument of an explicit exit.
func (c *execContext) runScriptFile(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	name := argv[0]

	child := c.fork()
	child.stdin, child.stdout, child.stderr = stdin, stdout, stderr
	child.flags = shellFlags{
		errExit:  c.interp.opts.ErrExit,
		noUnset:  c.interp.opts.NoUnset,
		pipefail: c.interp.opts.Pipefail,
	}

	if len(argv) > 1 && argv[1] == "-c" {
		if len(argv) < 3 {
			fmt.Fprintf(stderr, "websh: %s: -c: option requires an argument\n", name)
			return 2
		}
		child.params = positional{zero: name, args: argv[3:]}
		return child.runSource(argv[2])
	}

	if len(argv) < 2 {
		fmt.Fprintf(stderr, "websh: %s: script file required\n", name)
		return 2
	}

	data, err := afero.ReadFile(c.fs(), argv[1])
	if err != nil {
		fmt.Fprintf(stderr, "websh: %s: %s: no such file or directory\n", name, argv[1])
		return 127
	}

	body := string(data)
	if strings.HasPrefix(body, "#!") {
		if idx := strings.IndexByte(body, '\n'); idx >= 0 {
			body = body[idx+1:]
		} else {
			body = ""
		}
	}

	child.params = positional{zero: argv[1], args: argv[2:]}
	return child.runSource(body)
}
