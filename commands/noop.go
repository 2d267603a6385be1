package commands

import (
	"fmt"

	"github.com/devpad/websh/core/vos"
)

// True implements the POSIX true command.
func True(virtOS vos.VOS) int {
	return 0
}

// False implements the POSIX false command.
func False(virtOS vos.VOS) int {
	return 1
}

// Whoami prints the effective user name. Sessions are single-user; the name
// comes from the USER environment variable.
func Whoami(virtOS vos.VOS) int {
	user := virtOS.Getenv("USER")
	if user == "" {
		user = "root"
	}
	fmt.Fprintln(virtOS.Stdout(), user)
	return 0
}

var (
	_ vos.ProcessFunc = True
	_ vos.ProcessFunc = False
	_ vos.ProcessFunc = Whoami
)

func init() {
	addBinCmd("true", True)
	addBinCmd("false", False)
	addBinCmd("whoami", Whoami)
}
