package commands

import (
	"fmt"

	"github.com/devpad/websh/core/vos"
)

// Which reports where registered commands resolve.
func Which(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "which COMMAND...",
		Short: "Locate a command.",
	}

	return cmd.Run(virtOS, func() int {
		exitCode := 0
		for _, name := range cmd.Flags().Args() {
			if found, err := virtOS.LookPath(name); err == nil {
				fmt.Fprintln(virtOS.Stdout(), found)
				continue
			}
			if _, ok := AllCommands[name]; ok {
				fmt.Fprintf(virtOS.Stdout(), "/bin/%s\n", name)
			} else {
				exitCode = 1
			}
		}
		return exitCode
	})
}

var _ vos.ProcessFunc = Which

func init() {
	addBinCmd("which", Which)
}
