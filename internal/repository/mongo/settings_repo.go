package mongo

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// multipliersDocumentID is the fixed ID of the settings document inside each settings collection.
const multipliersDocumentID = "multipliers"

type mongoSettingsRepository struct {
	collections map[domain.Mode]*mongo.Collection
}

// NewMongoSettingsRepository creates a settings repository with one collection per mode.
func NewMongoSettingsRepository(db *mongo.Database) repository.SettingsRepository {
	collections := make(map[domain.Mode]*mongo.Collection, len(domain.Modes))
	for _, m := range domain.Modes {
		collections[m] = db.Collection(m.Collection(domain.SettingsCollection))
	}
	return &mongoSettingsRepository{collections: collections}
}

// GetMultipliers loads the settings document of the mode.
func (r *mongoSettingsRepository) GetMultipliers(ctx context.Context, mode domain.Mode) (*domain.MultiplierSettings, error) {
	coll, ok := r.collections[mode]
	if !ok {
		return nil, errors.New("unknown mode: " + string(mode))
	}

	var settings domain.MultiplierSettings
	err := coll.FindOne(ctx, bson.M{"_id": multipliersDocumentID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// SaveMultipliers upserts the settings document of the mode.
func (r *mongoSettingsRepository) SaveMultipliers(ctx context.Context, mode domain.Mode, settings *domain.MultiplierSettings) error {
	coll, ok := r.collections[mode]
	if !ok {
		return errors.New("unknown mode: " + string(mode))
	}

	settings.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"pushup":    settings.Pushup,
			"dips":      settings.Dips,
			"squat":     settings.Squat,
			"Lsit":      settings.Lsit,
			"pullup":    settings.Pullup,
			"updatedAt": settings.UpdatedAt,
		},
	}

	_, err := coll.UpdateOne(ctx, bson.M{"_id": multipliersDocumentID}, update, options.Update().SetUpsert(true))
	return err
}
