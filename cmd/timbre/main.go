package main

import "github.com/ewilliams-labs/timbre/internal/cli"

func main() {
	cli.Execute()
}
