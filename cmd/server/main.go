package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"vimeet/internal/config"
	"vimeet/internal/coordinator"
	"vimeet/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(gin.ReleaseMode)
	coord := coordinator.New()

	router := server.NewRouter(server.Deps{Coordinator: coord, StaticDir: cfg.StaticDir})
	log.Printf("listening on %s", fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port))
	log.Fatal(server.Run(cfg, router))
}
