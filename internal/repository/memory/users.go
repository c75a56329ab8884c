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

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]domain.UserProfile
	failWith error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{profiles: make(map[primitive.ObjectID]domain.UserProfile)}
}

// FailWith makes every following call return err. Pass nil to recover.
func (r *UserRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *UserRepository) Create(_ context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if profile.ID == primitive.NilObjectID || profile.Email == "" {
		return errors.New("profile ID and email are required")
	}
	if _, ok := r.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}

	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.profiles[profile.ID] = *profile
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *UserRepository) GetByUserName(_ context.Context, userName string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	for _, p := range r.profiles {
		if p.UserName == userName {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List returns profiles ordered by creation time, then ID, for stable output.
func (r *UserRepository) List(_ context.Context) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	out := make([]domain.UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *UserRepository) UpdateUserName(_ context.Context, id primitive.ObjectID, userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.UserName = userName
	p.UpdatedAt = time.Now().UTC()
	r.profiles[id] = p
	return nil
}
