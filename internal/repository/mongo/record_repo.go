// internal/repository/mongo/record_repo.go
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

// mongoRecordRepository implements repository.RecordRepository.
// Each mode gets its own posts collection.
type mongoRecordRepository struct {
	collections map[domain.Mode]*mongo.Collection
}

// NewMongoRecordRepository creates a new record repository backed by MongoDB.
func NewMongoRecordRepository(db *mongo.Database) repository.RecordRepository {
	collections := make(map[domain.Mode]*mongo.Collection, len(domain.Modes))
	for _, m := range domain.Modes {
		collections[m] = db.Collection(m.Collection(domain.PostsCollection))
	}
	return &mongoRecordRepository{collections: collections}
}

func (r *mongoRecordRepository) collection(mode domain.Mode) (*mongo.Collection, error) {
	c, ok := r.collections[mode]
	if !ok {
		return nil, errors.New("unknown mode: " + string(mode))
	}
	return c, nil
}

// Create inserts a new record and assigns its server timestamp.
func (r *mongoRecordRepository) Create(ctx context.Context, mode domain.Mode, record *domain.ExerciseRecord) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.ExerciseType == "" {
		return primitive.NilObjectID, errors.New("record requires userId and exerciseType")
	}
	coll, err := r.collection(mode)
	if err != nil {
		return primitive.NilObjectID, err
	}

	record.ID = primitive.NewObjectID()
	// Mongo keeps millisecond precision; truncate so the returned value matches what is stored.
	now := time.Now().UTC().Truncate(time.Millisecond)
	record.Timestamp = &now
	if record.Likes == nil {
		record.Likes = []primitive.ObjectID{}
	}
	if record.Comments == nil {
		record.Comments = []domain.Comment{}
	}

	result, err := coll.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a record by its ID.
func (r *mongoRecordRepository) GetByID(ctx context.Context, mode domain.Mode, id primitive.ObjectID) (*domain.ExerciseRecord, error) {
	coll, err := r.collection(mode)
	if err != nil {
		return nil, err
	}

	var record domain.ExerciseRecord
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByUser returns every record of one user, unordered.
// Callers filter by exercise themselves so no composite index is needed.
func (r *mongoRecordRepository) ListByUser(ctx context.Context, mode domain.Mode, userID primitive.ObjectID) ([]domain.ExerciseRecord, error) {
	return r.find(ctx, mode, bson.M{"userId": userID}, options.Find())
}

// ListAll returns every record of the mode in the requested order.
func (r *mongoRecordRepository) ListAll(ctx context.Context, mode domain.Mode, order repository.SortOrder) ([]domain.ExerciseRecord, error) {
	findOptions := options.Find()
	switch order {
	case repository.SortTimestampAsc:
		findOptions.SetSort(bson.D{{Key: "timestamp", Value: 1}})
	case repository.SortTimestampDesc:
		findOptions.SetSort(bson.D{{Key: "timestamp", Value: -1}})
	}
	return r.find(ctx, mode, bson.M{}, findOptions)
}

func (r *mongoRecordRepository) find(ctx context.Context, mode domain.Mode, filter bson.M, findOptions *options.FindOptions) ([]domain.ExerciseRecord, error) {
	coll, err := r.collection(mode)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []domain.ExerciseRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// AddLike adds userID to the like set. $addToSet prevents duplicates.
func (r *mongoRecordRepository) AddLike(ctx context.Context, mode domain.Mode, id, userID primitive.ObjectID) error {
	return r.update(ctx, mode, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike removes userID from the like set.
func (r *mongoRecordRepository) RemoveLike(ctx context.Context, mode domain.Mode, id, userID primitive.ObjectID) error {
	return r.update(ctx, mode, id, bson.M{"$pull": bson.M{"likes": userID}})
}

// AddComment appends a comment to the record's list.
func (r *mongoRecordRepository) AddComment(ctx context.Context, mode domain.Mode, id primitive.ObjectID, comment domain.Comment) error {
	return r.update(ctx, mode, id, bson.M{"$push": bson.M{"comments": comment}})
}

// ReplaceComments overwrites the whole comment list.
func (r *mongoRecordRepository) ReplaceComments(ctx context.Context, mode domain.Mode, id primitive.ObjectID, comments []domain.Comment) error {
	if comments == nil {
		comments = []domain.Comment{}
	}
	return r.update(ctx, mode, id, bson.M{"$set": bson.M{"comments": comments}})
}

func (r *mongoRecordRepository) update(ctx context.Context, mode domain.Mode, id primitive.ObjectID, update bson.M) error {
	coll, err := r.collection(mode)
	if err != nil {
		return err
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	// ModifiedCount is 0 when the like was already present; that's fine.
	return nil
}

// Delete removes a record, ensuring it belongs to ownerID.
func (r *mongoRecordRepository) Delete(ctx context.Context, mode domain.Mode, id, ownerID primitive.ObjectID) error {
	coll, err := r.collection(mode)
	if err != nil {
		return err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Either missing or owned by someone else; the filter cannot tell.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRecordIndexes creates necessary indexes for a posts collection.
func EnsureRecordIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Feed ordering
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
		{
			// Progress lookups query by user only
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
