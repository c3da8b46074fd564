package main

import (
	"log"

	"github.com/thiagokokada/gitk-history/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitk-history: %v", err)
	}
}
