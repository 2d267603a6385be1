package sh

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpad/websh/core/vos"
)

// testCommands is a tiny command set covering the behaviors the executor
// exercises: output, input, exit codes, environment and working directory.
func testCommands() vos.ProcessResolver {
	cmds := map[string]vos.ProcessFunc{
		"echo": func(virtOS vos.VOS) int {
			fmt.Fprintln(virtOS.Stdout(), strings.Join(virtOS.Args()[1:], " "))
			return 0
		},
		"printargs": func(virtOS vos.VOS) int {
			for _, arg := range virtOS.Args()[1:] {
				fmt.Fprintln(virtOS.Stdout(), arg)
			}
			return 0
		},
		"cat": func(virtOS vos.VOS) int {
			if len(virtOS.Args()) == 1 {
				io.Copy(virtOS.Stdout(), virtOS.Stdin())
				return 0
			}
			for _, name := range virtOS.Args()[1:] {
				data, err := afero.ReadFile(virtOS, name)
				if err != nil {
					fmt.Fprintf(virtOS.Stderr(), "cat: %s: no such file or directory\n", name)
					return 1
				}
				virtOS.Stdout().Write(data)
			}
			return 0
		},
		"upper": func(virtOS vos.VOS) int {
			data, _ := io.ReadAll(virtOS.Stdin())
			virtOS.Stdout().Write([]byte(strings.ToUpper(string(data))))
			return 0
		},
		"head1": func(virtOS vos.VOS) int {
			scanner := bufio.NewScanner(virtOS.Stdin())
			if scanner.Scan() {
				fmt.Fprintln(virtOS.Stdout(), scanner.Text())
			}
			return 0
		},
		"seq100": func(virtOS vos.VOS) int {
			for i := 1; i <= 100; i++ {
				fmt.Fprintln(virtOS.Stdout(), i)
			}
			return 0
		},
		"fail": func(virtOS vos.VOS) int {
			if len(virtOS.Args()) > 1 {
				code, _ := strconv.Atoi(virtOS.Args()[1])
				return code
			}
			return 1
		},
		"errout": func(virtOS vos.VOS) int {
			fmt.Fprintln(virtOS.Stderr(), strings.Join(virtOS.Args()[1:], " "))
			return 0
		},
		"pwd": func(virtOS vos.VOS) int {
			fmt.Fprintln(virtOS.Stdout(), virtOS.Getwd())
			return 0
		},
		"getenv": func(virtOS vos.VOS) int {
			fmt.Fprintln(virtOS.Stdout(), virtOS.Getenv(virtOS.Args()[1]))
			return 0
		},
	}
	return func(name string) vos.ProcessFunc {
		return cmds[name]
	}
}

func newTestShell(t *testing.T, opts Options) *Interpreter {
	t.Helper()
	if opts.Commands == nil {
		opts.Commands = testCommands()
	}
	return New(opts)
}

func run(t *testing.T, i *Interpreter, src string) Result {
	t.Helper()
	return i.Run(context.Background(), src)
}

func TestRunSimpleCommand(t *testing.T) {
	i := newTestShell(t, Options{})
	res := run(t, i, "echo hello world")
	assert.Equal(t, "hello world\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.Equal(t, 0, res.Code)
}

func TestRunCommandNotFound(t *testing.T) {
	i := newTestShell(t, Options{})
	res := run(t, i, "nonesuch")
	assert.Equal(t, 127, res.Code)
	assert.Contains(t, res.Stderr, "nonesuch: command not found")
}

func TestRunSyntaxError(t *testing.T) {
	i := newTestShell(t, Options{})
	res := run(t, i, "echo 'unterminated")
	assert.Equal(t, 2, res.Code)
	assert.Contains(t, res.Stderr, "syntax error")
}

func TestRunLogicalOperators(t *testing.T) {
	i := newTestShell(t, Options{})

	t.Run("and chain stops at first failure", func(t *testing.T) {
		res := run(t, i, "echo 1 && fail && echo 3 && echo 4")
		assert.Equal(t, "1\n", res.Stdout)
		assert.Equal(t, 1, res.Code)
	})

	t.Run("or recovers from failure", func(t *testing.T) {
		res := run(t, i, "fail && echo then || echo else")
		assert.Equal(t, "else\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("or skipped on success", func(t *testing.T) {
		res := run(t, i, "echo ok || echo fallback")
		assert.Equal(t, "ok\n", res.Stdout)
	})
}

func TestRunPipeline(t *testing.T) {
	i := newTestShell(t, Options{})

	t.Run("streams between stages", func(t *testing.T) {
		res := run(t, i, "echo hello | upper")
		assert.Equal(t, "HELLO\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("three stages", func(t *testing.T) {
		res := run(t, i, "echo hi there | upper | upper")
		assert.Equal(t, "HI THERE\n", res.Stdout)
	})

	t.Run("early exit downstream does not hang", func(t *testing.T) {
		res := run(t, i, "seq100 | head1")
		assert.Equal(t, "1\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("exit code comes from the last stage", func(t *testing.T) {
		res := run(t, i, "fail | echo ok")
		assert.Equal(t, 0, res.Code)
	})

	t.Run("pipefail surfaces upstream failure", func(t *testing.T) {
		res := run(t, i, "set -o pipefail; fail 3 | echo ok")
		assert.Equal(t, 3, res.Code)
	})

	t.Run("pipefail takes the rightmost nonzero code", func(t *testing.T) {
		res := run(t, i, "set -o pipefail; fail 3 | fail 4 | echo ok")
		assert.Equal(t, 4, res.Code)
	})
}

func TestRunRedirections(t *testing.T) {
	t.Run("stdout to file and back", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "echo saved > /out.txt; cat /out.txt")
		assert.Equal(t, "saved\n", res.Stdout)
	})

	t.Run("append", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "echo one > /log; echo two >> /log; cat /log")
		assert.Equal(t, "one\ntwo\n", res.Stdout)
	})

	t.Run("stdin from file", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "echo shouted > /in; upper < /in")
		assert.Equal(t, "SHOUTED\n", res.Stdout)
	})

	t.Run("stderr to file", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "errout oops 2> /err; cat /err")
		assert.Equal(t, "oops\n", res.Stdout)
		assert.Empty(t, res.Stderr)
	})

	t.Run("stderr joins a redirected stdout", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "errout mixed > /f 2>&1; cat /f")
		assert.Equal(t, "mixed\n", res.Stdout)
		assert.Empty(t, res.Stderr)
	})

	t.Run("dup before the stdout redirect keeps stderr on the run", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "errout msg 2>&1 > /f; cat /f")
		assert.Equal(t, "msg\n", res.Stdout)
		assert.Empty(t, res.Stderr)
	})

	t.Run("discard both without touching storage", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "echo noisy > /dev/null 2>&1")
		assert.Empty(t, res.Stdout)
		assert.Empty(t, res.Stderr)
		assert.Equal(t, 0, res.Code)

		_, err := i.Host().FS().Stat("/dev/null")
		assert.Error(t, err, "special files must not appear in the filesystem")
	})

	t.Run("combined streams to one file", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "errout only-err &> /both; cat /both")
		assert.Equal(t, "only-err\n", res.Stdout)
	})

	t.Run("missing input file", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "upper < /missing")
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, res.Stderr, "no such file")
	})
}

func TestRunStatements(t *testing.T) {
	i := newTestShell(t, Options{})

	t.Run("semicolons and newlines separate statements", func(t *testing.T) {
		res := run(t, i, "echo a; echo b\necho c")
		assert.Equal(t, "a\nb\nc\n", res.Stdout)
	})

	t.Run("parse error is local to its statement", func(t *testing.T) {
		res := run(t, i, "echo before\n| broken\necho after")
		assert.Equal(t, "before\nafter\n", res.Stdout)
		assert.Contains(t, res.Stderr, "syntax error")
		assert.Equal(t, 0, res.Code)
	})

	t.Run("last exit code reported", func(t *testing.T) {
		res := run(t, i, "echo a; fail 7")
		assert.Equal(t, 7, res.Code)
	})

	t.Run("dollar question", func(t *testing.T) {
		res := run(t, i, "fail 5; echo $?")
		assert.Equal(t, "5\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})
}

func TestRunVariables(t *testing.T) {
	t.Run("assignment persists across statements", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "X=hello; echo $X")
		assert.Equal(t, "hello\n", res.Stdout)
	})

	t.Run("prefix assignment scopes to the command", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "X=scoped getenv X; getenv X")
		assert.Equal(t, "scoped\n\n", res.Stdout)
	})

	t.Run("seeded environment", func(t *testing.T) {
		i := newTestShell(t, Options{Env: []string{"HOME=/home/joe"}})
		res := run(t, i, "echo $HOME")
		assert.Equal(t, "/home/joe\n", res.Stdout)
	})

	t.Run("export and unset", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "export X=1; getenv X; unset X; getenv X")
		assert.Equal(t, "1\n\n", res.Stdout)
	})
}

func TestRunBuiltinCd(t *testing.T) {
	fs := vos.NewMemFS()
	require.NoError(t, fs.MkdirAll("/home/joe", 0755))

	i := newTestShell(t, Options{FS: fs})

	t.Run("changes directory for later statements", func(t *testing.T) {
		res := run(t, i, "cd /home/joe && pwd")
		assert.Equal(t, "/home/joe\n", res.Stdout)
	})

	t.Run("relative paths", func(t *testing.T) {
		res := run(t, i, "cd /home; cd joe; pwd")
		assert.Equal(t, "/home/joe\n", res.Stdout)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		res := run(t, i, "cd /nope")
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, res.Stderr, "no such file or directory")
	})

	t.Run("directory resets between runs", func(t *testing.T) {
		run(t, i, "cd /home/joe")
		res := run(t, i, "pwd")
		assert.Equal(t, "/\n", res.Stdout)
	})
}

func TestRunBuiltinExit(t *testing.T) {
	i := newTestShell(t, Options{})

	res := run(t, i, "echo a; exit 3; echo b")
	assert.Equal(t, "a\n", res.Stdout)
	assert.Equal(t, 3, res.Code)

	res = run(t, i, "fail 9; exit")
	assert.Equal(t, 9, res.Code)
}

func TestRunSetFlags(t *testing.T) {
	t.Run("errexit stops the run", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "set -e; echo a; fail; echo b")
		assert.Equal(t, "a\n", res.Stdout)
		assert.Equal(t, 1, res.Code)
	})

	t.Run("errexit ignores guarded failures", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "set -e; fail || echo rescued; echo done")
		assert.Equal(t, "rescued\ndone\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("nounset makes unset references fatal", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "set -u; echo $NOPE; echo after")
		assert.NotContains(t, res.Stdout, "after")
		assert.Contains(t, res.Stderr, "unbound variable")
		assert.Equal(t, 1, res.Code)
	})

	t.Run("nounset aborts from inside a pipeline", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "set -u; echo $NOPE | upper; echo after")
		assert.NotContains(t, res.Stdout, "after")
		assert.Contains(t, res.Stderr, "unbound variable")
		assert.Equal(t, 1, res.Code)
	})

	t.Run("combined flags", func(t *testing.T) {
		i := newTestShell(t, Options{})
		res := run(t, i, "set -euo pipefail; for f in {1..5}; do echo $f; done")
		assert.Equal(t, "1\n2\n3\n4\n5\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("flags preset by options", func(t *testing.T) {
		i := newTestShell(t, Options{ErrExit: true})
		res := run(t, i, "fail; echo unreachable")
		assert.Empty(t, res.Stdout)
		assert.Equal(t, 1, res.Code)
	})
}

func TestRunForLoop(t *testing.T) {
	i := newTestShell(t, Options{})

	t.Run("iterates expanded words", func(t *testing.T) {
		res := run(t, i, "for x in a b c; do echo $x; done")
		assert.Equal(t, "a\nb\nc\n", res.Stdout)
	})

	t.Run("loop over glob", func(t *testing.T) {
		fs := vos.NewMemFS()
		require.NoError(t, afero.WriteFile(fs, "/w/a.txt", []byte("A"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/w/b.txt", []byte("B"), 0644))
		shell := newTestShell(t, Options{FS: fs, WorkingDir: "/w"})

		res := run(t, shell, "for f in *.txt; do cat $f; done")
		assert.Equal(t, "AB", res.Stdout)
	})

	t.Run("variable survives the loop", func(t *testing.T) {
		res := run(t, i, "for x in 1 2; do :; done; echo $x")
		assert.Equal(t, "2\n", res.Stdout)
	})

	t.Run("keywords as plain arguments", func(t *testing.T) {
		res := run(t, i, "for x in 1 2; do echo done; done")
		assert.Equal(t, "done\ndone\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("exit inside loop stops everything", func(t *testing.T) {
		res := run(t, i, "for x in 1 2 3; do echo $x; exit 4; done; echo after")
		assert.Equal(t, "1\n", res.Stdout)
		assert.Equal(t, 4, res.Code)
	})
}

func TestRunScriptInterpreter(t *testing.T) {
	fs := vos.NewMemFS()
	script := "#!/bin/sh\necho script $0 got $1 of $#\n"
	require.NoError(t, afero.WriteFile(fs, "/bin/greet.sh", []byte(script), 0755))

	i := newTestShell(t, Options{FS: fs})

	t.Run("positional parameters bind", func(t *testing.T) {
		res := run(t, i, "sh /bin/greet.sh alpha beta")
		assert.Equal(t, "script /bin/greet.sh got alpha of 2\n", res.Stdout)
		assert.Equal(t, 0, res.Code)
	})

	t.Run("bash and websh alias the interpreter", func(t *testing.T) {
		res := run(t, i, "bash /bin/greet.sh x")
		assert.Contains(t, res.Stdout, "got x of 1")
	})

	t.Run("inline command string", func(t *testing.T) {
		res := run(t, i, "websh -c 'echo inline'")
		assert.Equal(t, "inline\n", res.Stdout)
	})

	t.Run("missing script", func(t *testing.T) {
		res := run(t, i, "sh /nope.sh")
		assert.Equal(t, 127, res.Code)
	})
}

func TestRunRegistryCommands(t *testing.T) {
	i := newTestShell(t, Options{Registry: stubRegistry{}})

	res := run(t, i, "apphook a b")
	assert.Equal(t, "apphook ran with [a b]\n", res.Stdout)
	assert.Equal(t, 0, res.Code)

	// The registry wins over the resolved command set.
	res = run(t, i, "echo shadowed")
	assert.Equal(t, "registry echo\n", res.Stdout)
}

type stubRegistry struct{}

func (stubRegistry) HasCommand(name string) bool {
	return name == "apphook" || name == "echo"
}

func (stubRegistry) ExecuteCommand(name string, args []string, virtOS vos.VOS) int {
	switch name {
	case "apphook":
		fmt.Fprintf(virtOS.Stdout(), "apphook ran with %v\n", args)
	case "echo":
		fmt.Fprintln(virtOS.Stdout(), "registry echo")
	}
	return 0
}

func TestRunCancellation(t *testing.T) {
	i := newTestShell(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := i.Run(ctx, "echo hi")
	assert.Equal(t, 130, res.Code)
	assert.Empty(t, res.Stdout)
}

func TestRunCommandSubstitutionIsolation(t *testing.T) {
	i := newTestShell(t, Options{})

	// State changes inside a substitution stay inside it.
	res := run(t, i, "X=outer; echo $(X=inner getenv X) $X")
	assert.Equal(t, "inner outer\n", res.Stdout)
}

func TestSession(t *testing.T) {
	t.Run("state persists across runs", func(t *testing.T) {
		i := newTestShell(t, Options{})
		require.NoError(t, i.Host().FS().MkdirAll("/srv", 0755))

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		s := i.NewSession(context.Background(), nil, stdout, stderr)

		assert.Equal(t, 0, s.Run("cd /srv; GREETING=hello"))
		assert.Equal(t, "/srv", s.WorkingDir())

		assert.Equal(t, 0, s.Run("echo $GREETING; pwd"))
		assert.Equal(t, "hello\n/srv\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("exit ends the session", func(t *testing.T) {
		i := newTestShell(t, Options{})
		s := i.NewSession(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})

		assert.Equal(t, 3, s.Run("exit 3"))
		assert.True(t, s.Exited())

		// Further runs are no-ops that keep the exit code.
		assert.Equal(t, 3, s.Run("echo unreachable"))
	})

	t.Run("positional parameters", func(t *testing.T) {
		i := newTestShell(t, Options{})
		stdout := &bytes.Buffer{}
		s := i.NewSession(context.Background(), nil, stdout, &bytes.Buffer{})
		s.SetArgs("deploy.sh", []string{"prod", "eu"})

		assert.Equal(t, 0, s.Run(`echo $0 $1 $# "$@"`))
		assert.Equal(t, "deploy.sh prod 2 prod eu\n", stdout.String())
	})
}
