package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/devpad/websh/core/vos"
)

// Cat implements the POSIX cat command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/cat.html
func Cat(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cat [-n] [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}

	numberLines := cmd.Flags().Bool('n', "number all output lines")

	return cmd.Run(virtOS, func() int {
		lineNo := 1
		return cmd.RunEachFileOrStdin(virtOS, cmd.Flags().Args(), func(name string, fd io.Reader) error {
			if !*numberLines {
				_, err := io.Copy(virtOS.Stdout(), fd)
				return err
			}

			scanner := bufio.NewScanner(fd)
			for scanner.Scan() {
				fmt.Fprintf(virtOS.Stdout(), "%6d\t%s\n", lineNo, scanner.Text())
				lineNo++
			}
			return scanner.Err()
		})
	})
}

var _ vos.ProcessFunc = Cat

func init() {
	addBinCmd("cat", Cat)
}
