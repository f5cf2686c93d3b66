package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/internal/repository"
	"ai-diagnostics-be/internal/repository/memory"
	"ai-diagnostics-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Setup SQL failed: %v", err)
		}
	}

	log.Println("Step 2: Running GORM AutoMigrate...")
	err = db.AutoMigrate(
		&entity.Part{},
		&entity.Supplier{},
		&entity.RepairGuide{},
		&entity.ManualSection{},
		&entity.Asset{},
		&entity.WorkOrder{},
		&entity.RequestMetric{},
	)
	if err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	if os.Getenv("SEED_FIXTURES") == "true" {
		log.Println("Step 3: Seeding fixture data...")
		seed(db)
	}

	log.Println("Migration complete.")
}

// seed loads the fixture catalog into Postgres so a fresh environment can
// serve diagnostic requests immediately.
func seed(db *gorm.DB) {
	store := memory.Seeded()
	ctx := context.Background()

	for _, p := range store.PartRows {
		row := entity.Part{
			Id:                  p.ID,
			Name:                p.Name,
			PartNumber:          p.PartNumber,
			Manufacturer:        p.Manufacturer,
			Category:            p.Category,
			Description:         p.Description,
			Price:               p.Price,
			SupplierIds:         toJSON(p.SupplierIDs),
			CompatibleEquipment: toJSON(p.CompatibleEquipment),
			ErrorCodes:          toJSON(p.ErrorCodes),
		}
		if err := db.Save(&row).Error; err != nil {
			log.Fatalf("Error: Seeding part %s failed: %v", p.ID, err)
		}
	}

	for _, s := range store.SupplierRows {
		row := entity.Supplier{
			Id:           s.ID,
			Name:         s.Name,
			Rating:       s.Rating,
			LeadTimeDays: s.LeadTimeDays,
			Region:       s.Region,
		}
		if err := db.Save(&row).Error; err != nil {
			log.Fatalf("Error: Seeding supplier %s failed: %v", s.ID, err)
		}
	}

	for _, g := range store.GuideRows {
		row := entity.RepairGuide{
			Id:               g.ID,
			PartId:           g.PartID,
			Title:            g.Title,
			Steps:            toJSON(g.Steps),
			SafetyNotes:      toJSON(g.SafetyNotes),
			EstimatedMinutes: g.EstimatedMinutes,
		}
		if err := db.Save(&row).Error; err != nil {
			log.Fatalf("Error: Seeding guide %s failed: %v", g.ID, err)
		}
	}

	for _, a := range store.AssetRows {
		row := entity.Asset{
			Id:            a.ID,
			AssetTag:      a.AssetTag,
			EquipmentName: a.EquipmentName,
			Manufacturer:  a.Manufacturer,
			Department:    a.Department,
			Location:      a.Location,
			InstalledAt:   a.InstalledAt,
		}
		if err := db.Save(&row).Error; err != nil {
			log.Fatalf("Error: Seeding asset %s failed: %v", a.ID, err)
		}
	}

	for _, w := range store.OrderRows {
		row := entity.WorkOrder{
			Id:          w.ID,
			AssetId:     w.AssetID,
			Description: w.Description,
			Resolution:  w.Resolution,
			PartUsed:    w.PartUsed,
			ClosedAt:    w.ClosedAt,
		}
		if err := db.Save(&row).Error; err != nil {
			log.Fatalf("Error: Seeding work order %s failed: %v", w.ID, err)
		}
	}

	corpus := repository.NewManualCorpusRepository(db)
	for _, s := range store.SectionRows {
		if len(s.Vector) == 0 {
			log.Printf("Skipping manual section %s: no embedding (run the ingestion job to embed it)", s.ID)
			continue
		}
		if err := corpus.UpsertSection(ctx, s); err != nil {
			log.Fatalf("Error: Seeding manual section %s failed: %v", s.ID, err)
		}
	}
}

func toJSON(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	doc, _ := json.Marshal(values)
	return datatypes.JSON(doc)
}
