package main

import "github.com/josephlewis42/iocsh/cmd"

func main() {
	cmd.Execute()
}
