package memory

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.ExportRepository = (*ExportRepository)(nil)

// ExportRepository is an in-memory repository.ExportRepository.
type ExportRepository struct {
	mu      sync.Mutex
	exports []domain.Export
}

func NewExportRepository() *ExportRepository {
	return &ExportRepository{}
}

func (r *ExportRepository) Create(_ context.Context, export *domain.Export) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if export.ObjectKey == "" || export.CreatedBy == primitive.NilObjectID || !export.Mode.Valid() {
		return primitive.NilObjectID, errors.New("export requires objectKey, createdBy and a valid mode")
	}

	export.ID = primitive.NewObjectID()
	export.CreatedAt = time.Now().UTC()
	r.exports = append(r.exports, *export)
	return export.ID, nil
}

// ListByMode returns exports of one mode, newest first.
func (r *ExportRepository) ListByMode(_ context.Context, mode domain.Mode) ([]domain.Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Export{}
	for i := len(r.exports) - 1; i >= 0; i-- {
		if r.exports[i].Mode == mode {
			out = append(out, r.exports[i])
		}
	}
	return out, nil
}
