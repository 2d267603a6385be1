package commands

import (
	"fmt"

	"github.com/devpad/websh/core/vos"
)

// Rmdir implements a POSIX rmdir command.
func Rmdir(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "rmdir DIRECTORY...",
		Short: "Remove empty directories.",
	}

	return cmd.Run(virtOS, func() int {
		directories := cmd.Flags().Args()
		if len(directories) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "rmdir: missing operand")
			return 1
		}

		anyFailed := false
		for _, dir := range directories {
			file, err := virtOS.Open(dir)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "rmdir: cannot read directory %q: %s\n", dir, err)
				anyFailed = true
				continue
			}

			contents, err := file.Readdirnames(-1)
			file.Close()
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "rmdir: %q: not a directory\n", dir)
				anyFailed = true
				continue
			}
			if len(contents) > 0 {
				fmt.Fprintf(virtOS.Stderr(), "rmdir: directory not empty %q\n", dir)
				anyFailed = true
				continue
			}

			if err := virtOS.Remove(dir); err != nil {
				fmt.Fprintf(virtOS.Stderr(), "rmdir: cannot remove directory %q: %s\n", dir, err)
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	})
}

var _ vos.ProcessFunc = Rmdir

func init() {
	addBinCmd("rmdir", Rmdir)
}
