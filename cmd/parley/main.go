package main

import "github.com/MikeSquared-Agency/parley/internal/cli"

func main() {
	cli.Execute()
}
