package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"

	log "github.com/sirupsen/logrus"
)

// SettingsService reads and updates the multipliers of a mode.
type SettingsService struct {
	settings repository.SettingsRepository
	cache    *cache.Cache
}

func NewSettingsService(settings repository.SettingsRepository, c *cache.Cache) *SettingsService {
	return &SettingsService{settings: settings, cache: c}
}

// Get returns the stored multipliers or the defaults.
func (s *SettingsService) Get(ctx context.Context, m domain.Mode) (domain.MultiplierSettings, error) {
	return loadMultipliers(ctx, s.settings, m)
}

// Update merges patch into the current multipliers. Exercises missing from
// patch keep their value. Every value must be at least MinMultiplier.
func (s *SettingsService) Update(ctx context.Context, m domain.Mode, patch map[string]float64) (domain.MultiplierSettings, error) {
	if len(patch) == 0 {
		return domain.MultiplierSettings{}, invalid("multipliers", "at least one exercise is required")
	}
	for key, v := range patch {
		if _, ok := domain.ParseExerciseType(key); !ok {
			return domain.MultiplierSettings{}, invalid(key, "unknown exercise type")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < domain.MinMultiplier {
			return domain.MultiplierSettings{}, invalid(key, "multiplier must be at least %.1f", domain.MinMultiplier)
		}
	}

	current, err := loadMultipliers(ctx, s.settings, m)
	if err != nil {
		return domain.MultiplierSettings{}, err
	}
	for key, v := range patch {
		current.Set(domain.ExerciseType(key), v)
	}
	current.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.settings.SaveMultipliers(ctx, m, &current); err != nil {
		return domain.MultiplierSettings{}, fmt.Errorf("failed to save multipliers: %w", err)
	}
	s.cache.InvalidateMode(m)

	log.WithFields(log.Fields{"mode": m, "multipliers": current.AsMap()}).Info("multipliers updated")
	return current, nil
}
