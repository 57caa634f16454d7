package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/kv"
	"github.com/famledger/famledger/internal/models"
)

// tokenLifetime bounds how long an issued token stays valid. Revoked
// token ids only need to be remembered for this long.
const tokenLifetime = 60 * time.Minute

const revokedKeyPrefix = "revoked:"

// AuthService defines the interface for authentication operations
type AuthService interface {
	Signup(req models.SignupRequest) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GenerateToken(user models.User, secretKey []byte) (string, error)
	RevokeToken(ctx context.Context, claims *models.Claims) error
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

// authService implements the AuthService interface
type authService struct {
	db      *gorm.DB
	revoked kv.Store
	bus     *events.Bus
}

// NewAuthService creates a new authentication service
func NewAuthService(db *gorm.DB, revoked kv.Store, bus *events.Bus) AuthService {
	return &authService{
		db:      db,
		revoked: revoked,
		bus:     bus,
	}
}

// Signup registers a new account. The account row carries the profile
// fields, so the profile can never be created half-way: either the
// insert succeeds and the user is pending review, or nothing is
// written.
func (s *authService) Signup(req models.SignupRequest) (models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, common.NewValidationError("email", "a valid email address is required")
	}
	if len(req.Password) < 6 {
		return models.User{}, common.NewValidationError("password", "password must be at least 6 characters")
	}

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return models.User{}, common.ErrDuplicateEntry
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:          email,
		Username:       strings.TrimSpace(req.Username),
		HashedPassword: string(hashedPassword),
		Role:           "user",
		Status:         models.StatusPending,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{Topic: models.TopicUsers})
		s.bus.Publish(events.Event{Owner: user.ID, Topic: models.TopicProfile})
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account if valid.
// Unknown emails and wrong passwords report the same error.
func (s *authService) Authenticate(email, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, common.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return models.User{}, common.ErrInvalidCredentials
	}

	return user, nil
}

// GenerateToken creates a new JWT token for the user
func (s *authService) GenerateToken(user models.User, secretKey []byte) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// RevokeToken remembers the token id until the token would have
// expired anyway.
func (s *authService) RevokeToken(ctx context.Context, claims *models.Claims) error {
	if claims == nil || claims.Id == "" {
		return nil
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Set(ctx, revokedKeyPrefix+claims.Id, "1", ttl)
}

// IsTokenRevoked reports whether the token id has been revoked.
// Lookup failures other than a clean miss count as not revoked;
// revocation is best-effort and must not lock out every session when
// the store is unreachable.
func (s *authService) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}
	_, err := s.revoked.Get(ctx, revokedKeyPrefix+tokenID)
	return err == nil
}
