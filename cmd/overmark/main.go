package main

import "github.com/YannKr/overmark/internal/cli"

func main() {
	cli.Execute()
}
