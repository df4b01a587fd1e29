// Command server runs the refkeeper account and referral backend.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/refkeeper/internal/server"
	"github.com/dmitrijs2005/refkeeper/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	app.Run(context.Background())
}
