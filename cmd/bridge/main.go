// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gearvr_bridge/internal/app"
)

func main() {
	configPath := flag.String("config", "gearvr_config.txt", "path to the KEY=VALUE settings file")
	flag.Parse()

	log.Println("starting gearvr-bridge daemon")

	if err := app.RunBridge(*configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
