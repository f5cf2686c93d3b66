package repository

import (
	"context"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/retrieval"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ManualCorpusRepository loads the manual section corpus, embeddings
// included, for in-memory scoring by the retrieval engine.
type ManualCorpusRepository struct {
	db *gorm.DB
}

func NewManualCorpusRepository(db *gorm.DB) *ManualCorpusRepository {
	return &ManualCorpusRepository{db: db}
}

func (r *ManualCorpusRepository) Sections(ctx context.Context) ([]retrieval.Section, error) {
	var rows []entity.ManualSection
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	sections := make([]retrieval.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, retrieval.Section{
			ID:           row.Id,
			Manufacturer: row.Manufacturer,
			Equipment:    row.Equipment,
			Title:        row.Title,
			Text:         row.Content,
			Vector:       row.Embedding.Slice(),
		})
	}
	return sections, nil
}

// UpsertSection stores a section with its embedding. Used by ingestion
// tooling, not by the request path.
func (r *ManualCorpusRepository) UpsertSection(ctx context.Context, section retrieval.Section) error {
	row := entity.ManualSection{
		Id:           section.ID,
		Manufacturer: section.Manufacturer,
		Equipment:    section.Equipment,
		Title:        section.Title,
		Content:      section.Text,
		Embedding:    pgvector.NewVector(section.Vector),
	}
	return r.db.WithContext(ctx).Save(&row).Error
}
