package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/ranking"
	"alcyxob/growrep/internal/repository"
	"alcyxob/growrep/internal/scoring"
	"alcyxob/growrep/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	log "github.com/sirupsen/logrus"
)

// Snapshot is the JSON document uploaded by ExportRankings.
type Snapshot struct {
	Mode        domain.Mode                            `json:"mode"`
	GeneratedAt time.Time                              `json:"generatedAt"`
	Multipliers domain.MultiplierSettings              `json:"multipliers"`
	Exercises   []ranking.Leaderboard                  `json:"exercises"`
	Totals      map[scoring.Metric]ranking.Leaderboard `json:"totals"`
}

// ExportResult pairs the stored metadata with a temporary download link.
type ExportResult struct {
	Export      *domain.Export `json:"export"`
	DownloadURL string         `json:"downloadUrl"`
}

// ExportService uploads ranking snapshots to object storage.
type ExportService struct {
	storage     storage.FileStorage
	exports     repository.ExportRepository
	leaderboard *LeaderboardService
	urlExpiry   time.Duration
}

// NewExportService accepts a nil storage; every export then fails with ErrExportsDisabled.
func NewExportService(fs storage.FileStorage, exports repository.ExportRepository, leaderboard *LeaderboardService, urlExpiry time.Duration) *ExportService {
	if urlExpiry <= 0 {
		urlExpiry = storage.DefaultPresignedURLExpiry
	}
	return &ExportService{
		storage:     fs,
		exports:     exports,
		leaderboard: leaderboard,
		urlExpiry:   urlExpiry,
	}
}

// Enabled reports whether a storage backend is configured.
func (s *ExportService) Enabled() bool {
	return s.storage != nil
}

// ExportRankings serializes the current leaderboards of m and uploads them.
func (s *ExportService) ExportRankings(ctx context.Context, m domain.Mode, userID primitive.ObjectID) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, ErrExportsDisabled
	}

	boards, err := s.leaderboard.Rankings(ctx, m, false)
	if err != nil {
		return nil, err
	}
	res, err := s.leaderboard.Scores(ctx, m, false)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Mode:        m,
		GeneratedAt: time.Now().UTC(),
		Multipliers: res.Multipliers,
		Exercises:   boards,
		Totals:      make(map[scoring.Metric]ranking.Leaderboard, len(scoring.Metrics)),
	}
	for _, metric := range scoring.Metrics {
		snap.Totals[metric] = ranking.TotalLeaderboard(res, metric)
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", m, uuid.NewString())
	if err := s.storage.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	export := &domain.Export{
		Mode:      m,
		ObjectKey: key,
		CreatedBy: userID,
		Size:      int64(len(body)),
	}
	if _, err := s.exports.Create(ctx, export); err != nil {
		// don't leave an orphaned object behind
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned export")
		}
		return nil, fmt.Errorf("failed to save export metadata: %w", err)
	}

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download URL: %w", err)
	}

	log.WithFields(log.Fields{
		"mode":     m,
		"exportID": export.ID.Hex(),
		"size":     export.Size,
	}).Info("rankings exported")
	return &ExportResult{Export: export, DownloadURL: url}, nil
}

// List returns the exports of m, newest first.
func (s *ExportService) List(ctx context.Context, m domain.Mode) ([]domain.Export, error) {
	list, err := s.exports.ListByMode(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return list, nil
}
