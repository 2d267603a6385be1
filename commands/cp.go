package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/devpad/websh/core/vos"
)

// Cp implements a POSIX cp command.
func Cp(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cp [-r] SOURCE... DEST",
		Short: "Copy SOURCE to DEST, or SOURCE(s) into DIRECTORY.",
	}

	recursive := cmd.Flags().BoolLong("recursive", 'r', "copy directories recursively")

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

			stat, err := virtOS.Stat(src)
			switch {
			case err != nil:
				return fmt.Errorf("cannot stat %q: no such file or directory", src)

			case stat.IsDir() && !*recursive:
				return fmt.Errorf("-r not specified; omitting directory %q", src)

			case stat.IsDir():
				if err := copyTree(virtOS, src, target); err != nil {
					return err
				}

			default:
				if err := copyFile(virtOS, src, target, stat.Mode()); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func copyFile(fs vos.VFS, src, dest string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %q", src)
	}
	defer in.Close()

	out, err := fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("cannot create %q", dest)
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyTree(fs vos.VFS, src, dest string) error {
	return afero.Walk(fs, src, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(dest, strings.TrimPrefix(walkPath, src))
		if info.IsDir() {
			return fs.MkdirAll(target, info.Mode())
		}
		return copyFile(fs, walkPath, target, info.Mode())
	})
}

var _ vos.ProcessFunc = Cp

func init() {
	addBinCmd("cp", Cp)
}
