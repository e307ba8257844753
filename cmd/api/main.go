package main

import (
	"context"
	"log"

	"demandflow/config"
	"demandflow/db"
	"demandflow/identity"
	"demandflow/request"
	"demandflow/stats"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	identityService := identity.NewService(identity.NewRepository(pool), cfg.JWTSecret)
	_ = request.NewService(request.NewRepository(pool), identityService, cfg.UploadDir)
	_ = stats.NewService(stats.NewRepository(pool))

	log.Printf("services ready on port %s", cfg.ServerPort)
}
