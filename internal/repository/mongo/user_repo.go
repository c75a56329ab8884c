package mongo

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// The users collection is shared by both modes.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(domain.UsersCollection),
	}
}

// Create inserts a profile under the ID issued by the identity provider.
func (r *mongoUserRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	if profile.ID == primitive.NilObjectID || profile.Email == "" {
		return errors.New("profile ID and email are required")
	}

	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a profile by the owner's account ID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUserName retrieves the profile holding userName, if any.
func (r *mongoUserRepository) GetByUserName(ctx context.Context, userName string) (*domain.UserProfile, error) {
	return r.findOne(ctx, bson.M{"userName": userName})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// List returns the whole user directory.
func (r *mongoUserRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []domain.UserProfile{}
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateUserName sets a new user name. Uniqueness is checked by the caller; the index is not unique.
func (r *mongoUserRepository) UpdateUserName(ctx context.Context, id primitive.ObjectID, userName string) error {
	update := bson.M{
		"$set": bson.M{
			"userName":  userName,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userName", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
