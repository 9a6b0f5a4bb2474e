package main

import "github.com/leca/dt-serving-urls/internal/cli"

func main() {
	cli.Execute()
}
