package memory

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"sync"
	"time"
)

var _ repository.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository is an in-memory repository.SettingsRepository.
type SettingsRepository struct {
	mu       sync.Mutex
	settings map[domain.Mode]domain.MultiplierSettings
	failWith error
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{settings: make(map[domain.Mode]domain.MultiplierSettings)}
}

// FailWith makes every following call return err. Pass nil to recover.
func (r *SettingsRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *SettingsRepository) GetMultipliers(_ context.Context, mode domain.Mode) (*domain.MultiplierSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	s, ok := r.settings[mode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *SettingsRepository) SaveMultipliers(_ context.Context, mode domain.Mode, settings *domain.MultiplierSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	settings.UpdatedAt = time.Now().UTC()
	r.settings[mode] = *settings
	return nil
}
