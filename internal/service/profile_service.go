package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/identity"
	"alcyxob/growrep/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"

	log "github.com/sirupsen/logrus"
)

// ProfileService manages the shared user directory.
type ProfileService struct {
	users repository.UserRepository
	cache *cache.Cache
}

func NewProfileService(users repository.UserRepository, c *cache.Cache) *ProfileService {
	return &ProfileService{users: users, cache: c}
}

// EnsureProfile returns the user's profile, creating it with the email as user name on first use.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID primitive.ObjectID, email string) (*domain.UserProfile, error) {
	profile, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile = &domain.UserProfile{
		ID:       userID,
		UserName: email,
		Email:    email,
	}
	if err := s.users.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// created concurrently
			return s.users.GetByID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	// new names show up in every view
	for _, m := range domain.Modes {
		s.cache.InvalidateMode(m)
	}
	log.WithField("userID", userID.Hex()).Info("profile created")
	return profile, nil
}

// HandleAuthState is registered with the identity provider.
func (s *ProfileService) HandleAuthState(ctx context.Context, state identity.AuthState) {
	if !state.SignedIn {
		return
	}
	if _, err := s.EnsureProfile(ctx, state.UserID, state.Email); err != nil {
		log.WithError(err).WithField("userID", state.UserID.Hex()).Error("failed to ensure profile")
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateUserName sets a unique name of MinUserNameLength to MaxUserNameLength characters.
// Uniqueness is checked before writing, so two racing renames may both succeed.
func (s *ProfileService) UpdateUserName(ctx context.Context, userID primitive.ObjectID, userName string) (*domain.UserProfile, error) {
	userName = strings.TrimSpace(userName)
	n := utf8.RuneCountInString(userName)
	if n < domain.MinUserNameLength || n > domain.MaxUserNameLength {
		return nil, invalid("userName", "must be between %d and %d characters", domain.MinUserNameLength, domain.MaxUserNameLength)
	}

	existing, err := s.users.GetByUserName(ctx, userName)
	switch {
	case err == nil && existing.ID != userID:
		return nil, ErrUserNameTaken
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}

	if err := s.users.UpdateUserName(ctx, userID, userName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("failed to update user name: %w", err)
	}
	for _, m := range domain.Modes {
		s.cache.InvalidateMode(m)
	}
	return s.GetProfile(ctx, userID)
}
