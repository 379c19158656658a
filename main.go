package main

import (
	"github.com/aunum/log"

	"github.com/adrlab/adplace/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
