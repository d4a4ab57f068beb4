package main

import "github.com/claude/vitalsync/internal/cli"

func main() {
	cli.Execute()
}
