package main

import "slackassist/internal/commands"

func main() {
	commands.Execute()
}
