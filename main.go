package main

import (
	"log"

	"github.com/thiagokokada/hgblame/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("hgblame: %v", err)
	}
}
