package main

import (
	"context"
	"log"

	"ai-diagnostics-be/internal/bootstrap"
	"ai-diagnostics-be/internal/config"
	"ai-diagnostics-be/internal/server"
	"ai-diagnostics-be/internal/tracer"
	"ai-diagnostics-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	shutdownTracer := tracer.Init("ai-diagnostics-backend")
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer func() {
		if container.NatsPub != nil {
			container.NatsPub.Close()
		}
		_ = container.Logger.Sync()
	}()

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
