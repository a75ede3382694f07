package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"bizpilot/apperrors"
	"bizpilot/db"
	"bizpilot/pkg/logger"
	"bizpilot/pkg/metrics"
	"bizpilot/utils"
)

// Identity is the principal extracted from a verified token
type Identity struct {
	Email string
}

type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService handles signup, login and bearer token verification
type AuthService struct {
	udb *db.UsersDB
	cfg Config
	now func() time.Time
}

func NewAuthService(udb *db.UsersDB, cfg Config) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	return &AuthService{
		udb: udb,
		cfg: cfg,
		now: time.Now,
	}
}

// Signup registers a new user. The password is bcrypt hashed before the
// store lock is taken.
func (as *AuthService) Signup(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	if err := utils.ValidateCredentials(email, password); err != nil {
		return err
	}

	// cheap early exit; Create re-checks under the store lock
	if _, err := as.udb.FindUserByEmail(ctx, email); err == nil {
		return apperrors.NewDuplicateEmail(email)
	} else if !errors.Is(err, db.ErrUserNotFound) {
		return apperrors.NewStorageError("load_users", err)
	}

	hash, appErr := utils.HashPassword(password, as.cfg.BcryptCost)
	if appErr != nil {
		return appErr
	}

	err := as.udb.Create(ctx, db.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    db.Timestamp(as.now()),
	})
	if errors.Is(err, db.ErrUserExists) {
		return apperrors.NewDuplicateEmail(email)
	}
	if err != nil {
		return apperrors.NewStorageError("save_users", err)
	}

	metrics.IncrementRegistrations()
	logger.WithField("email", email).Info("account created")

	return nil
}

// Login checks the credentials and issues a signed token
func (as *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		metrics.RecordLoginAttempt(false)
		return "", apperrors.NewValidationError("Email and password required")
	}

	user, err := as.udb.FindUserByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		metrics.RecordLoginAttempt(false)
		return "", apperrors.NewUserNotFound()
	}
	if err != nil {
		return "", apperrors.NewStorageError("load_users", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		metrics.RecordLoginAttempt(false)
		return "", apperrors.NewInvalidCredentials()
	}

	token, err := GenerateToken(user.Email, as.cfg.Secret, as.cfg.TokenTTL)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to issue token").WithInternal(err)
	}

	metrics.RecordLoginAttempt(true)
	return token, nil
}

// Verify validates a bearer token and returns the identity it carries
func (as *AuthService) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.RecordTokenVerification("missing")
		return Identity{}, apperrors.NewMissingToken()
	}

	email, err := ParseToken(token, as.cfg.Secret)
	if err != nil {
		metrics.RecordTokenVerification("invalid")
		appErr := apperrors.NewInvalidToken().WithInternal(err)
		if errors.Is(err, ErrTokenExpired) {
			appErr.WithDetails("reason", "expired")
		}
		return Identity{}, appErr
	}

	metrics.RecordTokenVerification("valid")
	return Identity{Email: email}, nil
}

// AdminGate checks the shared administrator secret
type AdminGate struct {
	key []byte
}

func NewAdminGate(key string) *AdminGate {
	return &AdminGate{key: []byte(key)}
}

// Check reports whether supplied matches the configured key. An empty
// configured key never authorizes.
func (g *AdminGate) Check(supplied string) bool {
	if len(g.key) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(g.key, []byte(supplied)) == 1
}
