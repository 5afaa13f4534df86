package main

import "github.com/gabble-chat/gabble/cmd"

func main() {
	cmd.Execute()
}
