package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/progress"
	"alcyxob/growrep/internal/ranking"
	"alcyxob/growrep/internal/repository"
	"alcyxob/growrep/internal/scoring"

	"go.mongodb.org/mongo-driver/bson/primitive"

	log "github.com/sirupsen/logrus"
)

// LeaderboardService serves the derived read views of a mode. Every view is
// memoized in the cache and rebuilt from the store on a miss or a forced refresh.
type LeaderboardService struct {
	records    repository.RecordRepository
	users      repository.UserRepository
	settings   repository.SettingsRepository
	cache      *cache.Cache
	aggregator *scoring.Aggregator
	metrics    *metrics.Manager
}

var _ mode.Refresher = (*LeaderboardService)(nil)

func NewLeaderboardService(
	records repository.RecordRepository,
	users repository.UserRepository,
	settings repository.SettingsRepository,
	c *cache.Cache,
	m *metrics.Manager,
) *LeaderboardService {
	return &LeaderboardService{
		records:    records,
		users:      users,
		settings:   settings,
		cache:      c,
		aggregator: scoring.NewAggregator(),
		metrics:    m,
	}
}

// Feed returns the mode's records newest first, pending ones on top.
func (s *LeaderboardService) Feed(ctx context.Context, m domain.Mode, force bool) ([]ranking.FeedItem, error) {
	return cache.Load(ctx, s.cache, m, cache.KindPosts, "", force, func(ctx context.Context) ([]ranking.FeedItem, error) {
		records, err := s.listRecords(ctx, m, repository.SortTimestampDesc)
		if err != nil {
			return nil, err
		}
		profiles, err := s.listProfiles(ctx)
		if err != nil {
			return nil, err
		}
		return ranking.BuildFeed(records, profiles), nil
	})
}

// Rankings returns one leaderboard per exercise on raw best values.
func (s *LeaderboardService) Rankings(ctx context.Context, m domain.Mode, force bool) ([]ranking.Leaderboard, error) {
	return cache.Load(ctx, s.cache, m, cache.KindRankings, "", force, func(ctx context.Context) ([]ranking.Leaderboard, error) {
		records, err := s.listRecords(ctx, m, repository.SortNone)
		if err != nil {
			return nil, err
		}
		profiles, err := s.listProfiles(ctx)
		if err != nil {
			return nil, err
		}
		return ranking.ExerciseLeaderboards(records, profiles), nil
	})
}

// Scores returns the full aggregation. Any failed read fails the whole call and nothing is cached.
func (s *LeaderboardService) Scores(ctx context.Context, m domain.Mode, force bool) (*scoring.Result, error) {
	return cache.Load(ctx, s.cache, m, cache.KindScores, "", force, func(ctx context.Context) (*scoring.Result, error) {
		start := time.Now()

		records, err := s.listRecords(ctx, m, repository.SortNone)
		if err != nil {
			return nil, err
		}
		profiles, err := s.listProfiles(ctx)
		if err != nil {
			return nil, err
		}
		settings, err := loadMultipliers(ctx, s.settings, m)
		if err != nil {
			s.storeError("get_multipliers")
			return nil, err
		}

		res := s.aggregator.Aggregate(records, profiles, settings)
		if s.metrics != nil {
			s.metrics.HistogramAggregationDuration.Observe(time.Since(start).Seconds())
		}
		log.WithFields(log.Fields{
			"mode":  m,
			"users": len(res.Users),
		}).Debug("scores aggregated")
		return res, nil
	})
}

// TotalLeaderboard ranks users by their total in the given metric.
func (s *LeaderboardService) TotalLeaderboard(ctx context.Context, m domain.Mode, rawMetric string, force bool) (ranking.Leaderboard, error) {
	metric, err := scoring.ParseMetric(rawMetric)
	if err != nil {
		return ranking.Leaderboard{}, invalid("metric", "must be one of %v", scoring.Metrics)
	}
	res, err := s.Scores(ctx, m, force)
	if err != nil {
		return ranking.Leaderboard{}, err
	}
	return ranking.TotalLeaderboard(res, metric), nil
}

// Progress returns userID's history for one exercise.
func (s *LeaderboardService) Progress(ctx context.Context, m domain.Mode, userID primitive.ObjectID, rawExercise string, force bool) (*progress.Series, error) {
	exercise, ok := domain.ParseExerciseType(rawExercise)
	if !ok {
		return nil, invalid("exercise", "must be one of %v", domain.ExerciseTypes)
	}
	key := progress.SubKey(userID, exercise)
	return cache.Load(ctx, s.cache, m, cache.KindProgress, key, force, func(ctx context.Context) (*progress.Series, error) {
		list, err := s.records.ListByUser(ctx, m, userID)
		if err != nil {
			s.storeError("list_by_user")
			return nil, fmt.Errorf("failed to list records of user %s: %w", userID.Hex(), err)
		}
		return progress.Build(pointers(list), userID, exercise), nil
	})
}

// Refresh reloads posts and rankings plus whatever the visible view needs, bypassing the cache.
func (s *LeaderboardService) Refresh(ctx context.Context, m domain.Mode, state mode.ViewState) error {
	var errs []error
	if _, err := s.Feed(ctx, m, true); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Rankings(ctx, m, true); err != nil {
		errs = append(errs, err)
	}

	switch state.View {
	case mode.ViewScores:
		if _, err := s.Scores(ctx, m, true); err != nil {
			errs = append(errs, err)
		}
	case mode.ViewProgress:
		if state.UserID.IsZero() || !state.Exercise.Valid() {
			break
		}
		if _, err := s.Progress(ctx, m, state.UserID, string(state.Exercise), true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *LeaderboardService) listRecords(ctx context.Context, m domain.Mode, order repository.SortOrder) ([]*domain.ExerciseRecord, error) {
	list, err := s.records.ListAll(ctx, m, order)
	if err != nil {
		s.storeError("list_records")
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return pointers(list), nil
}

func (s *LeaderboardService) listProfiles(ctx context.Context) ([]*domain.UserProfile, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		s.storeError("list_users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*domain.UserProfile, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return out, nil
}

func (s *LeaderboardService) storeError(op string) {
	if s.metrics != nil {
		s.metrics.CounterStoreErrors.WithLabelValues(op).Inc()
	}
}

func pointers(list []domain.ExerciseRecord) []*domain.ExerciseRecord {
	out := make([]*domain.ExerciseRecord, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return out
}

// loadMultipliers falls back to the defaults when the mode has no stored settings.
func loadMultipliers(ctx context.Context, repo repository.SettingsRepository, m domain.Mode) (domain.MultiplierSettings, error) {
	stored, err := repo.GetMultipliers(ctx, m)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DefaultMultipliers(), nil
	}
	if err != nil {
		return domain.MultiplierSettings{}, fmt.Errorf("failed to load multipliers: %w", err)
	}
	return *stored, nil
}
