package commands

import (
	"errors"
	"fmt"
	"path"

	"github.com/devpad/websh/core/vos"
)

// Mv implements a POSIX mv command.
func Mv(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mv SOURCE... DEST",
		Short: "Rename SOURCE to DEST, or move SOURCE(s) into DIRECTORY.",
	}

	return cmd.RunE(virtOS, func() error {
		args := cmd.Flags().Args()
		if len(args) < 2 {
			return errors.New("missing operand")
		}

		sources, dest := args[:len(args)-1], args[len(args)-1]

		destStat, err := virtOS.Stat(dest)
		destIsDir := err == nil && destStat.IsDir()
		if len(sources) > 1 && !destIsDir {
			return fmt.Errorf("target %q is not a directory", dest)
		}

		for _, src := range sources {
			target := dest
			if destIsDir {
				target = path.Join(dest, path.Base(src))
			}
			if err := virtOS.Rename(src, target); err != nil {
				return fmt.Errorf("cannot move %q to %q", src, target)
			}
		}
		return nil
	})
}

var _ vos.ProcessFunc = Mv

func init() {
	addBinCmd("mv", Mv)
}
