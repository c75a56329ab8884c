package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User name length bounds, counted in characters.
const (
	MinUserNameLength = 2
	MaxUserNameLength = 20
)

// UserProfile is the public profile shared by both modes.
// The ID is the account ID issued by the identity provider.
type UserProfile struct {
	ID        primitive.ObjectID `bson:"_id" json:"userId"`
	UserName  string             `bson:"userName" json:"userName"` // unique, defaults to the email
	Email     string             `bson:"email" json:"email"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName falls back to the email when no user name has been set.
func (p *UserProfile) DisplayName() string {
	if p.UserName != "" {
		return p.UserName
	}
	return p.Email
}

// Credential is the identity provider's account record. It never leaves the identity package.
type Credential struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"passwordHash"`
	Disabled       bool               `bson:"disabled"`
	ResetTokenHash string             `bson:"resetTokenHash,omitempty"`
	ResetExpiresAt *time.Time         `bson:"resetExpiresAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}
