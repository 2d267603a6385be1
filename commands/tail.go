package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/devpad/websh/core/vos"
)

// Tail implements the POSIX tail command without follow mode.
func Tail(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "tail [-n NUMBER] [FILE]...",
		Short: "Print the last NUMBER lines of each FILE to standard output.",
	}

	lineCount := cmd.Flags().IntLong("lines", 'n', 10, "number of lines to print")

	return cmd.Run(virtOS, func() int {
		files := cmd.Flags().Args()
		showHeaders := len(files) > 1

		return cmd.RunEachFileOrStdin(virtOS, files, func(name string, fd io.Reader) error {
			if showHeaders {
				fmt.Fprintf(virtOS.Stdout(), "==> %s <==\n", name)
			}

			var lines []string
			scanner := bufio.NewScanner(fd)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
				if len(lines) > *lineCount {
					lines = lines[1:]
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			for _, line := range lines {
				fmt.Fprintln(virtOS.Stdout(), line)
			}
			return nil
		})
	})
}

var _ vos.ProcessFunc = Tail

func init() {
	addBinCmd("tail", Tail)
}
