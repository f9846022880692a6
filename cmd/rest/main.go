package main

import (
	"context"
	"log"

	"diligence-ai-be/internal/bootstrap"
	"diligence-ai-be/internal/config"
	"diligence-ai-be/internal/server"
	"diligence-ai-be/internal/tracer"
	"diligence-ai-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database. An unreachable database is not fatal: the
	// checkpointer downgrades to its in-memory backend and the persistence
	// endpoints surface errors until the database comes back.
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Printf("[WARN] Database unreachable at startup, continuing with degraded persistence: %v", err)
		gormDB, err = database.NewDeferredGormDB(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to open GORM handle: %v", err)
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
