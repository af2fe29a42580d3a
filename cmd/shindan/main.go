package main

import (
	"github.com/shindanlab/shindan/internal/cli"
)

func main() {
	cli.Execute()
}
