package commands

import (
	"fmt"

	"github.com/devpad/websh/core/vos"
)

// Clear implements the UNIX clear command.
func Clear(virtOS vos.VOS) int {
	if virtOS.GetPTY().IsPTY {
		// Assumes VT100 compatibility.
		fmt.Fprint(virtOS.Stdout(), "\033[2J\033[0;0H")
	}
	return 0
}

var _ vos.ProcessFunc = Clear

func init() {
	addBinCmd("clear", Clear)
}
