package main

import (
	"github.com/NVIDIA/recipekit/pkg/cli"
)

func main() {
	cli.Execute()
}
