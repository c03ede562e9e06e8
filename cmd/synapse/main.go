package main

import (
	"github.com/deepnoodle-ai/synapse/cmd/synapse/cli"
)

func main() {
	cli.Execute()
}
