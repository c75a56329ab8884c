// Package identity authenticates accounts and issues session tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	log "github.com/sirupsen/logrus"
)

const (
	MinPasswordLength = 6

	defaultTokenTTL          = 24 * time.Hour
	defaultResetTTL          = time.Hour
	defaultMaxFailedAttempts = 5
	defaultLockoutWindow     = 15 * time.Minute
	defaultRecentLoginWindow = 5 * time.Minute
	issuer                   = "growrep"
)

// Session is handed to the client after a successful sign-in or sign-up.
type Session struct {
	Token     string             `json:"token"`
	UserID    primitive.ObjectID `json:"userId"`
	Email     string             `json:"email"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// AuthState is broadcast to listeners whenever a user signs in or out.
type AuthState struct {
	UserID   primitive.ObjectID
	Email    string
	SignedIn bool
}

// Listener receives auth state changes synchronously.
type Listener func(ctx context.Context, state AuthState)

// ResetNotifier delivers a password reset token to the account owner.
type ResetNotifier func(ctx context.Context, email, token string) error

// Claims is the JWT payload of a session token.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Provider is the identity service used by the API layer.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, userID primitive.ObjectID) error
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	Reauthenticate(ctx context.Context, userID primitive.ObjectID, password string) error
	ChangePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error
	OnAuthStateChange(l Listener)
	ParseToken(token string) (*Claims, error)
}

// Options tune a LocalProvider. Zero values take the defaults.
type Options struct {
	JWTSecret         string
	TokenTTL          time.Duration
	ResetTTL          time.Duration
	MaxFailedAttempts int
	LockoutWindow     time.Duration
	RecentLoginWindow time.Duration
	SignUpDisabled    bool
	BcryptCost        int
	Notifier          ResetNotifier
	Now               func() time.Time
}

// LocalProvider keeps accounts in a CredentialRepository.
type LocalProvider struct {
	creds    repository.CredentialRepository
	opts     Options
	attempts *attemptTracker

	mu        sync.Mutex
	lastAuth  map[primitive.ObjectID]time.Time
	listeners []Listener
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider panics without a JWT secret.
func NewLocalProvider(creds repository.CredentialRepository, opts Options) *LocalProvider {
	if opts.JWTSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = defaultResetTTL
	}
	if opts.MaxFailedAttempts == 0 {
		opts.MaxFailedAttempts = defaultMaxFailedAttempts
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = defaultLockoutWindow
	}
	if opts.RecentLoginWindow <= 0 {
		opts.RecentLoginWindow = defaultRecentLoginWindow
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LocalProvider{
		creds:    creds,
		opts:     opts,
		attempts: newAttemptTracker(opts.MaxFailedAttempts, opts.LockoutWindow),
		lastAuth: make(map[primitive.ObjectID]time.Time),
	}
}

func logNotifier(_ context.Context, email, _ string) error {
	log.WithField("email", email).Info("password reset requested, no notifier configured")
	return nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if p.opts.SignUpDisabled {
		return nil, newError(CodeOperationNotAllowed)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, newError(CodeWeakPassword)
	}

	hash, err := p.hash(password)
	if err != nil {
		return nil, err
	}
	cred := &domain.Credential{Email: email, PasswordHash: hash}
	if _, err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(CodeEmailAlreadyInUse)
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	log.WithField("userID", cred.ID.Hex()).Info("account created")
	return p.startSession(ctx, cred)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, newError(CodeInvalidCredential)
	}
	now := p.opts.Now()
	if p.attempts.blocked(email, now) {
		return nil, newError(CodeTooManyRequests)
	}

	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.attempts.fail(email, now)
			return nil, newError(CodeUserNotFound)
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.Disabled {
		return nil, newError(CodeUserDisabled)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		p.attempts.fail(email, now)
		log.WithField("userID", cred.ID.Hex()).Debug("sign-in with wrong password")
		return nil, newError(CodeWrongPassword)
	}

	p.attempts.reset(email)
	return p.startSession(ctx, cred)
}

// SignOut ends the recent-login window and notifies listeners.
// Issued tokens stay valid until they expire.
func (p *LocalProvider) SignOut(ctx context.Context, userID primitive.ObjectID) error {
	cred, err := p.creds.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("failed to load credential: %w", err)
	}

	p.mu.Lock()
	delete(p.lastAuth, userID)
	p.mu.Unlock()

	p.notify(ctx, AuthState{UserID: cred.ID, Email: cred.Email, SignedIn: false})
	return nil
}

// SendPasswordReset stores a hashed one-time token and hands the plain token to the notifier.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.Disabled {
		return newError(CodeUserDisabled)
	}

	secret := uuid.NewString()
	hash, err := p.hash(secret)
	if err != nil {
		return err
	}
	expires := p.opts.Now().Add(p.opts.ResetTTL).UTC()
	if err := p.creds.SetResetToken(ctx, cred.ID, hash, &expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	token := cred.ID.Hex() + "." + secret
	if err := p.opts.Notifier(ctx, cred.Email, token); err != nil {
		return fmt.Errorf("failed to deliver reset token: %w", err)
	}
	return nil
}

// ConfirmPasswordReset consumes a token from SendPasswordReset.
func (p *LocalProvider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	idHex, secret, ok := strings.Cut(token, ".")
	if !ok || secret == "" {
		return newError(CodeExpiredActionCode)
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return newError(CodeExpiredActionCode)
	}
	if len(newPassword) < MinPasswordLength {
		return newError(CodeWeakPassword)
	}

	cred, err := p.creds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeExpiredActionCode)
		}
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.ResetTokenHash == "" || cred.ResetExpiresAt == nil || !p.opts.Now().Before(*cred.ResetExpiresAt) {
		return newError(CodeExpiredActionCode)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.ResetTokenHash), []byte(secret)) != nil {
		return newError(CodeExpiredActionCode)
	}

	hash, err := p.hash(newPassword)
	if err != nil {
		return err
	}
	if err := p.creds.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	p.attempts.reset(cred.Email)
	log.WithField("userID", id.Hex()).Info("password reset confirmed")
	return nil
}

// Reauthenticate opens the recent-login window required by ChangePassword.
func (p *LocalProvider) Reauthenticate(ctx context.Context, userID primitive.ObjectID, password string) error {
	cred, err := p.creds.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.Disabled {
		return newError(CodeUserDisabled)
	}
	now := p.opts.Now()
	if p.attempts.blocked(cred.Email, now) {
		return newError(CodeTooManyRequests)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		p.attempts.fail(cred.Email, now)
		return newError(CodeWrongPassword)
	}
	p.attempts.reset(cred.Email)
	p.touch(userID)
	return nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return newError(CodeWeakPassword)
	}

	p.mu.Lock()
	last, ok := p.lastAuth[userID]
	p.mu.Unlock()
	if !ok || p.opts.Now().Sub(last) > p.opts.RecentLoginWindow {
		return newError(CodeRequiresRecentLogin)
	}

	hash, err := p.hash(newPassword)
	if err != nil {
		return err
	}
	if err := p.creds.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	log.WithField("userID", userID.Hex()).Info("password changed")
	return nil
}

// OnAuthStateChange registers l for every later sign-in, sign-up and sign-out.
func (p *LocalProvider) OnAuthStateChange(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// ParseToken validates a session token and returns its claims.
func (p *LocalProvider) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.opts.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token or missing claims")
	}
	return claims, nil
}

func (p *LocalProvider) startSession(ctx context.Context, cred *domain.Credential) (*Session, error) {
	now := p.opts.Now()
	expires := now.Add(p.opts.TokenTTL)
	claims := &Claims{
		UserID: cred.ID.Hex(),
		Email:  cred.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.opts.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	p.touch(cred.ID)
	p.notify(ctx, AuthState{UserID: cred.ID, Email: cred.Email, SignedIn: true})

	return &Session{
		Token:     signed,
		UserID:    cred.ID,
		Email:     cred.Email,
		ExpiresAt: expires,
	}, nil
}

func (p *LocalProvider) touch(userID primitive.ObjectID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAuth[userID] = p.opts.Now()
}

func (p *LocalProvider) notify(ctx context.Context, state AuthState) {
	p.mu.Lock()
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	for _, l := range listeners {
		l(ctx, state)
	}
}

func (p *LocalProvider) hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), p.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(b), nil
}

// normalizeEmail accepts bare addresses only ("a@b.c", not "A <a@b.c>").
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", newError(CodeInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", newError(CodeInvalidEmail)
	}
	return email, nil
}
