package main

import "github.com/devpad/websh/cmd"

func main() {
	cmd.Execute()
}
