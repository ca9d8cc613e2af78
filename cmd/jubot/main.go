package main

import (
	"log"

	"github.com/jujucrew/jubot/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ jubot failed to start: %v", err)
	}
}
