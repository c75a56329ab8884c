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

const credentialCollectionName = "credentials"

// mongoCredentialRepository implements repository.CredentialRepository
type mongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates the account store used by the identity provider.
func NewMongoCredentialRepository(db *mongo.Database) repository.CredentialRepository {
	return &mongoCredentialRepository{
		collection: db.Collection(credentialCollectionName),
	}
}

// Create inserts a new account. Emails are unique (see EnsureCredentialIndexes).
func (r *mongoCredentialRepository) Create(ctx context.Context, cred *domain.Credential) (primitive.ObjectID, error) {
	if cred.Email == "" || cred.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("credential email and password hash are required")
	}

	cred.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, cred)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an account by ID.
func (r *mongoCredentialRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves an account by email address.
func (r *mongoCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoCredentialRepository) findOne(ctx context.Context, filter bson.M) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.collection.FindOne(ctx, filter).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// UpdatePasswordHash replaces the password hash and clears any pending reset token.
func (r *mongoCredentialRepository) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	update := bson.M{
		"$set":   bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"resetTokenHash": "", "resetExpiresAt": ""},
	}
	return r.updateOne(ctx, id, update)
}

// SetResetToken stores (or clears, with an empty hash) the password reset token.
func (r *mongoCredentialRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiresAt *time.Time) error {
	var update bson.M
	if tokenHash == "" {
		update = bson.M{"$unset": bson.M{"resetTokenHash": "", "resetExpiresAt": ""}}
	} else {
		update = bson.M{"$set": bson.M{
			"resetTokenHash": tokenHash,
			"resetExpiresAt": expiresAt,
			"updatedAt":      time.Now().UTC(),
		}}
	}
	return r.updateOne(ctx, id, update)
}

func (r *mongoCredentialRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCredentialIndexes creates the unique email index.
func EnsureCredentialIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
