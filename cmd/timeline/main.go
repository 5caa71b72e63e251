package main

import "github.com/footprintlab/timeline-engine/internal/cli"

func main() {
	cli.Execute()
}
