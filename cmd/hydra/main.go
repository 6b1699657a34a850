package main

import "hydra/internal/cmd"

func main() {
	cmd.Execute()
}
