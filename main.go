package main

import (
	"github.com/0xPolygon/edge-xcc/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
