package repository

import (
	"alcyxob/growrep/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SortOrder selects the ordering of ListAll results.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortTimestampAsc
	SortTimestampDesc
)

// RecordRepository reads and writes exercise records. Every call names the mode
// namespace explicitly; implementations map it to a physical collection.
type RecordRepository interface {
	Create(ctx context.Context, mode domain.Mode, record *domain.ExerciseRecord) (primitive.ObjectID, error)
	GetByID(ctx context.Context, mode domain.Mode, id primitive.ObjectID) (*domain.ExerciseRecord, error)
	ListByUser(ctx context.Context, mode domain.Mode, userID primitive.ObjectID) ([]domain.ExerciseRecord, error)
	ListAll(ctx context.Context, mode domain.Mode, order SortOrder) ([]domain.ExerciseRecord, error)
	// AddLike and RemoveLike have set semantics: adding twice stores one entry.
	AddLike(ctx context.Context, mode domain.Mode, id, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, mode domain.Mode, id, userID primitive.ObjectID) error
	AddComment(ctx context.Context, mode domain.Mode, id primitive.ObjectID, comment domain.Comment) error
	// ReplaceComments rewrites the whole comment list (index based deletion).
	ReplaceComments(ctx context.Context, mode domain.Mode, id primitive.ObjectID, comments []domain.Comment) error
	Delete(ctx context.Context, mode domain.Mode, id, ownerID primitive.ObjectID) error
}

// UserRepository manages profiles. Profiles are not mode scoped.
type UserRepository interface {
	Create(ctx context.Context, profile *domain.UserProfile) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProfile, error)
	GetByUserName(ctx context.Context, userName string) (*domain.UserProfile, error)
	List(ctx context.Context) ([]domain.UserProfile, error)
	UpdateUserName(ctx context.Context, id primitive.ObjectID, userName string) error
}

// SettingsRepository stores the multiplier document of each mode.
type SettingsRepository interface {
	// GetMultipliers returns ErrNotFound when the mode has no stored settings.
	GetMultipliers(ctx context.Context, mode domain.Mode) (*domain.MultiplierSettings, error)
	SaveMultipliers(ctx context.Context, mode domain.Mode, settings *domain.MultiplierSettings) error
}

// CredentialRepository backs the identity provider.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	// SetResetToken stores a password reset token hash; an empty hash clears it.
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiresAt *time.Time) error
}

// ExportRepository stores metadata of uploaded ranking snapshots.
type ExportRepository interface {
	Create(ctx context.Context, export *domain.Export) (primitive.ObjectID, error)
	ListByMode(ctx context.Context, mode domain.Mode) ([]domain.Export, error)
}
