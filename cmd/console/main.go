package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gearvr_bridge/internal/app"
)

func main() {
	configPath := flag.String("config", "gearvr_config.txt", "path to the KEY=VALUE settings file")
	flag.Parse()

	log.Println("starting gearvr-bridge console (MQTT subscriber)")

	if err := app.RunConsole(*configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
