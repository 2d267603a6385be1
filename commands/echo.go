package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devpad/websh/core/vos"
)

var (
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\a`, "\a", // alert
		`\b`, "\b", // backspace
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	// Octal (\0NNN) escapes.
	for {
		idx := strings.Index(s, `\0`)
		if idx < 0 {
			break
		}
		end := idx + 2
		for end < len(s) && end < idx+5 && s[end] >= '0' && s[end] <= '7' {
			end++
		}
		if end == idx+2 {
			break
		}
		code, err := strconv.ParseInt(s[idx+2:end], 8, 32)
		if err != nil {
			break
		}
		s = s[:idx] + string(rune(code)) + s[end:]
	}
	return s
}

// Echo implements a limited echo command.
func Echo(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "echo [-en] [ARG]...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	escapes := opt.Bool('e', "interpret backslash escapes")
	noNewline := opt.Bool('n', "do not output the trailing newline")

	return cmd.Run(virtOS, func() int {
		w := virtOS.Stdout()
		for i, arg := range opt.Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			if *escapes {
				arg = unescape(arg)
			}
			fmt.Fprint(w, arg)
		}
		if !*noNewline {
			fmt.Fprintln(w)
		}
		return 0
	})
}

var _ vos.ProcessFunc = Echo

func init() {
	addBinCmd("echo", Echo)
}
