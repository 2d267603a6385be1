package commands

import (
	"fmt"
	"io"
	"unicode"

	"github.com/devpad/websh/core/vos"
)

type wcCount struct {
	bytes int
	lines int
	words int
	name  string

	inSpace bool
}

func (w *wcCount) Write(data []byte) (int, error) {
	for _, c := range data {
		isFirstByte := w.bytes == 0
		w.bytes++

		if c == '\n' {
			w.lines++
		}

		if unicode.IsSpace(rune(c)) {
			w.inSpace = true
		} else {
			if w.inSpace || isFirstByte {
				w.words++
			}
			w.inSpace = false
		}
	}

	return len(data), nil
}

func (w *wcCount) add(other *wcCount) {
	w.bytes += other.bytes
	w.lines += other.lines
	w.words += other.words
}

// Wc implements the POSIX wc command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/wc.html
func Wc(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "wc [-clw] [FILE]...",
		Short: "Write the number of newlines, words, and bytes in each input file to standard output.",
	}

	opts := cmd.Flags()
	writeLines := opts.Bool('l', "write the number of newlines in each file")
	writeWords := opts.Bool('w', "write the number of words in each file")
	writeBytes := opts.Bool('c', "write the number of bytes in each file")

	return cmd.Run(virtOS, func() int {
		nonePicked := !(*writeLines || *writeWords || *writeBytes)

		var cols []func(*wcCount) string
		if *writeLines || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.lines) })
		}
		if *writeWords || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.words) })
		}
		if *writeBytes || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.bytes) })
		}

		display := func(count *wcCount) {
			for i, col := range cols {
				if i != 0 {
					fmt.Fprint(virtOS.Stdout(), " ")
				}
				fmt.Fprint(virtOS.Stdout(), col(count))
			}
			if count.name != "" {
				fmt.Fprint(virtOS.Stdout(), " ", count.name)
			}
			fmt.Fprintln(virtOS.Stdout())
		}

		files := cmd.Flags().Args()
		var counts []*wcCount

		code := cmd.RunEachFileOrStdin(virtOS, files, func(name string, fd io.Reader) error {
			count := &wcCount{}
			if name != "-" {
				count.name = name
			}
			if _, err := io.Copy(count, fd); err != nil {
				return err
			}
			counts = append(counts, count)
			display(count)
			return nil
		})

		if len(counts) > 1 {
			total := &wcCount{name: "total"}
			for _, count := range counts {
				total.add(count)
			}
			display(total)
		}

		return code
	})
}

var _ vos.ProcessFunc = Wc

func init() {
	addBinCmd("wc", Wc)
}
