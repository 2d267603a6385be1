package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/devpad/websh/commands"
	"github.com/devpad/websh/core/config"
	"github.com/devpad/websh/core/sh"
)

var (
	cfgPath     string
	commandLine string
)

// loadConfig reads the configuration file, falling back to the built-in
// defaults when none exists yet.
func loadConfig() (*config.Configuration, error) {
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// newInterpreter builds a shell over a fresh in-memory filesystem seeded
// with the conventional directory skeleton.
func newInterpreter(cfg *config.Configuration) *sh.Interpreter {
	interp := sh.New(sh.Options{
		Hostname:   cfg.Hostname,
		Env:        cfg.EnvList(),
		WorkingDir: cfg.WorkingDir,
		Commands:   commands.Resolver(),
		ErrExit:    cfg.Shell.ErrExit,
		NoUnset:    cfg.Shell.NoUnset,
		Pipefail:   cfg.Shell.Pipefail,
	})

	hostFS := interp.Host().FS()
	for _, dir := range []string{"/bin", "/tmp", cfg.Env["HOME"]} {
		if dir != "" {
			_ = hostFS.MkdirAll(dir, 0755)
		}
	}
	return interp
}

var rootCmd = &cobra.Command{
	Use:   "websh [script [args...]]",
	Short: "POSIX-style shell over a virtual filesystem",
	Long: `A small POSIX-style shell that runs entirely over a virtual
filesystem. Without arguments it starts an interactive session; with a
script path it runs the script.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		interp := newInterpreter(cfg)

		switch {
		case commandLine != "":
			session := interp.NewSession(cmd.Context(), nil, cmd.OutOrStdout(), cmd.ErrOrStderr())
			session.SetArgs("websh", args)
			exit(session.Run(commandLine))
			return nil

		case len(args) > 0:
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			session := interp.NewSession(cmd.Context(), nil, cmd.OutOrStdout(), cmd.ErrOrStderr())
			session.SetArgs(args[0], args[1:])
			exit(session.Run(string(body)))
			return nil

		default:
			return runREPL(cmd, interp, cfg)
		}
	},
}

// exit terminates the process with the shell's exit code. Success returns
// normally so deferred cleanup runs.
func exit(code int) {
	if code != 0 {
		os.Exit(code)
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.ConfigurationName, "path to the configuration file")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run the given command line and exit")
}
