package cmd

import (
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"

	"github.com/devpad/websh/core/config"
	"github.com/devpad/websh/core/sh"
)

// runREPL drives an interactive session until EOF or the `exit` builtin.
func runREPL(cmd *cobra.Command, interp *sh.Interpreter, cfg *config.Configuration) error {
	rlCfg := &readline.Config{
		Prompt:       cfg.Prompt,
		HistoryLimit: cfg.History.MaxEntries,
		Stdin:        readline.NewCancelableStdin(cmd.InOrStdin()),
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
	}
	if err := rlCfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	session := interp.NewSession(cmd.Context(), nil, cmd.OutOrStdout(), cmd.ErrOrStderr())

	for {
		rl.SetPrompt(renderPrompt(cfg.Prompt, cfg.Hostname, session))

		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			continue
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		session.Run(line)
		if session.Exited() {
			return nil
		}
	}
}

// renderPrompt expands the \u, \h, \w and \$ escapes in a prompt template.
func renderPrompt(template, hostname string, session *sh.Session) string {
	user := session.Getenv("USER")
	if user == "" {
		user = "root"
	}

	return strings.NewReplacer(
		`\u`, user,
		`\h`, hostname,
		`\w`, session.WorkingDir(),
		`\$`, "$",
	).Replace(template)
}
