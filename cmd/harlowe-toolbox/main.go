package main

import "harlowe-toolbox/internal/cli"

func main() {
	cli.Execute()
}
