package main

import "pagepress/cmd/pagepress/commands"

func main() {
	commands.Execute()
}
