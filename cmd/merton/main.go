package main

import "github.com/rustyeddy/merton/internal/cli"

func main() {
	cli.Execute()
}
