package commands

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/devpad/websh/core/vos"
)

// Grep implements the POSIX grep command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/grep.html
func Grep(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "grep [-inv] PATTERN [FILE]...",
		Short: "Search files for text matching a pattern.",
	}

	invert := cmd.Flags().Bool('v', "select lines not matching the pattern")
	ignoreCase := cmd.Flags().Bool('i', "perform matching without regard to case")
	showLineNumbers := cmd.Flags().Bool('n', "show line numbers")

	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "grep: missing argument PATTERN")
			return 2
		}

		pattern := args[0]
		if *ignoreCase {
			pattern = "(?i)" + pattern
		}
		regex, err := regexp.Compile(pattern)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "grep: %v\n", err)
			return 2
		}

		files := args[1:]
		showFileName := len(files) > 1
		anyMatched := false

		code := cmd.RunEachFileOrStdin(virtOS, files, func(name string, fd io.Reader) error {
			w := virtOS.Stdout()

			scanner := bufio.NewScanner(fd)
			lineNo := 1
			for scanner.Scan() {
				line := scanner.Bytes()
				lineMatches := regex.Match(line)

				if lineMatches != *invert {
					anyMatched = true
					if showFileName {
						fmt.Fprintf(w, "%s:", name)
					}
					if *showLineNumbers {
						fmt.Fprintf(w, "%d:", lineNo)
					}
					fmt.Fprintf(w, "%s\n", line)
				}
				lineNo++
			}
			return scanner.Err()
		})

		switch {
		case code != 0:
			return 2
		case !anyMatched:
			// No match exits 1 per POSIX.
			return 1
		default:
			return 0
		}
	})
}

var _ vos.ProcessFunc = Grep

func init() {
	addBinCmd("grep", Grep)
}
