package memory

import (
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.CredentialRepository = (*CredentialRepository)(nil)

// CredentialRepository is an in-memory repository.CredentialRepository.
type CredentialRepository struct {
	mu    sync.Mutex
	creds map[primitive.ObjectID]domain.Credential
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{creds: make(map[primitive.ObjectID]domain.Credential)}
}

func (r *CredentialRepository) Create(_ context.Context, cred *domain.Credential) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cred.Email == "" || cred.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("credential email and password hash are required")
	}
	for _, c := range r.creds {
		if c.Email == cred.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	cred.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	r.creds[cred.ID] = *cred
	return cred.ID, nil
}

func (r *CredentialRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *CredentialRepository) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.creds {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *CredentialRepository) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creds[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.PasswordHash = hash
	c.ResetTokenHash = ""
	c.ResetExpiresAt = nil
	c.UpdatedAt = time.Now().UTC()
	r.creds[id] = c
	return nil
}

func (r *CredentialRepository) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creds[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.ResetTokenHash = tokenHash
	c.ResetExpiresAt = expiresAt
	if tokenHash == "" {
		c.ResetExpiresAt = nil
	}
	r.creds[id] = c
	return nil
}

// Disable marks an account as disabled.
func (r *CredentialRepository) Disable(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.creds[id]; ok {
		c.Disabled = true
		r.creds[id] = c
	}
}
