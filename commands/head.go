package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/devpad/websh/core/vos"
)

// Head implements the POSIX head command.
func Head(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "head [-n NUMBER] [FILE]...",
		Short: "Print the first NUMBER lines of each FILE to standard output.",
	}

	lineCount := cmd.Flags().IntLong("lines", 'n', 10, "number of lines to print")

	return cmd.Run(virtOS, func() int {
		files := cmd.Flags().Args()
		showHeaders := len(files) > 1

		return cmd.RunEachFileOrStdin(virtOS, files, func(name string, fd io.Reader) error {
			if showHeaders {
				fmt.Fprintf(virtOS.Stdout(), "==> %s <==\n", name)
			}

			scanner := bufio.NewScanner(fd)
			for i := 0; i < *lineCount && scanner.Scan(); i++ {
				fmt.Fprintln(virtOS.Stdout(), scanner.Text())
			}
			return scanner.Err()
		})
	})
}

var _ vos.ProcessFunc = Head

func init() {
	addBinCmd("head", Head)
}
