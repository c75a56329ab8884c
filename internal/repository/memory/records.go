// Package memory keeps every collection in process memory. It backs tests and the
// `memory` database driver used for local development.
package memory

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.RecordRepository = (*RecordRepository)(nil)

// RecordRepository is an in-memory repository.RecordRepository.
type RecordRepository struct {
	mu       sync.Mutex
	records  map[domain.Mode][]domain.ExerciseRecord
	lastTS   time.Time
	now      func() time.Time
	failWith error
	reads    int
}

// NewRecordRepository creates an empty store.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		records: make(map[domain.Mode][]domain.ExerciseRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source.
func (r *RecordRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// FailWith makes every following call return err. Pass nil to recover.
func (r *RecordRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Reads counts list and get calls, so callers can observe cache hits.
func (r *RecordRepository) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

// nextTimestamp keeps timestamps strictly increasing across writes.
func (r *RecordRepository) nextTimestamp() time.Time {
	ts := r.now()
	if !ts.After(r.lastTS) {
		ts = r.lastTS.Add(time.Millisecond)
	}
	r.lastTS = ts
	return ts
}

func (r *RecordRepository) Create(_ context.Context, mode domain.Mode, record *domain.ExerciseRecord) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return primitive.NilObjectID, r.failWith
	}
	if !mode.Valid() {
		return primitive.NilObjectID, errors.New("unknown mode: " + string(mode))
	}

	record.ID = primitive.NewObjectID()
	ts := r.nextTimestamp()
	record.Timestamp = &ts
	if record.Likes == nil {
		record.Likes = []primitive.ObjectID{}
	}
	if record.Comments == nil {
		record.Comments = []domain.Comment{}
	}

	r.records[mode] = append(r.records[mode], record.Clone())
	return record.ID, nil
}

// Insert stores a record as-is, keeping a nil timestamp. Used to model
// writes the store has not committed yet.
func (r *RecordRepository) Insert(mode domain.Mode, record domain.ExerciseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == primitive.NilObjectID {
		record.ID = primitive.NewObjectID()
	}
	r.records[mode] = append(r.records[mode], record.Clone())
}

func (r *RecordRepository) GetByID(_ context.Context, mode domain.Mode, id primitive.ObjectID) (*domain.ExerciseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.failWith != nil {
		return nil, r.failWith
	}

	i := r.indexOf(mode, id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	rec := r.records[mode][i].Clone()
	return &rec, nil
}

func (r *RecordRepository) ListByUser(_ context.Context, mode domain.Mode, userID primitive.ObjectID) ([]domain.ExerciseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.failWith != nil {
		return nil, r.failWith
	}

	out := []domain.ExerciseRecord{}
	for _, rec := range r.records[mode] {
		if rec.UserID == userID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (r *RecordRepository) ListAll(_ context.Context, mode domain.Mode, order repository.SortOrder) ([]domain.ExerciseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.failWith != nil {
		return nil, r.failWith
	}

	out := make([]domain.ExerciseRecord, 0, len(r.records[mode]))
	for _, rec := range r.records[mode] {
		out = append(out, rec.Clone())
	}

	// Mongo sorts missing/null timestamps before any date in ascending order.
	less := func(a, b domain.ExerciseRecord) bool {
		if a.Timestamp == nil || b.Timestamp == nil {
			return a.Timestamp == nil && b.Timestamp != nil
		}
		return a.Timestamp.Before(*b.Timestamp)
	}
	switch order {
	case repository.SortTimestampAsc:
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	case repository.SortTimestampDesc:
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	}
	return out, nil
}

func (r *RecordRepository) AddLike(_ context.Context, mode domain.Mode, id, userID primitive.ObjectID) error {
	return r.mutate(mode, id, func(rec *domain.ExerciseRecord) {
		if !rec.LikedBy(userID) {
			rec.Likes = append(rec.Likes, userID)
		}
	})
}

func (r *RecordRepository) RemoveLike(_ context.Context, mode domain.Mode, id, userID primitive.ObjectID) error {
	return r.mutate(mode, id, func(rec *domain.ExerciseRecord) {
		kept := rec.Likes[:0]
		for _, l := range rec.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		rec.Likes = kept
	})
}

func (r *RecordRepository) AddComment(_ context.Context, mode domain.Mode, id primitive.ObjectID, comment domain.Comment) error {
	return r.mutate(mode, id, func(rec *domain.ExerciseRecord) {
		rec.Comments = append(rec.Comments, comment)
	})
}

func (r *RecordRepository) ReplaceComments(_ context.Context, mode domain.Mode, id primitive.ObjectID, comments []domain.Comment) error {
	return r.mutate(mode, id, func(rec *domain.ExerciseRecord) {
		rec.Comments = append([]domain.Comment{}, comments...)
	})
}

func (r *RecordRepository) Delete(_ context.Context, mode domain.Mode, id, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	i := r.indexOf(mode, id)
	if i < 0 || r.records[mode][i].UserID != ownerID {
		return repository.ErrNotFound
	}
	r.records[mode] = append(r.records[mode][:i], r.records[mode][i+1:]...)
	return nil
}

func (r *RecordRepository) mutate(mode domain.Mode, id primitive.ObjectID, fn func(*domain.ExerciseRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	i := r.indexOf(mode, id)
	if i < 0 {
		return repository.ErrNotFound
	}
	fn(&r.records[mode][i])
	return nil
}

func (r *RecordRepository) indexOf(mode domain.Mode, id primitive.ObjectID) int {
	for i, rec := range r.records[mode] {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
