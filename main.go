package main

import (
	"fmt"
	"os"

	"trainboard-backend/internal/config"
	"trainboard-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %s\n", err)
		os.Exit(1)
	}

	srv := server.New(cfg)

	if err := srv.Initialize(); err != nil {
		srv.Echo.Logger.Fatal(err)
	}

	srv.Echo.Logger.Fatal(srv.Start())
}
