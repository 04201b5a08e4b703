package user

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eas/internal/apierr"
	"eas/internal/auth"
	"eas/internal/campus"
)

var studentNoPattern = regexp.MustCompile(`^\d{4}-\d{6}$`)

// Store is the persistence needed by the user service.
type Store interface {
	Insert(ctx context.Context, u User) (User, error)
	ByID(ctx context.Context, id string) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByStudentNo(ctx context.Context, no string) (*User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RefreshTokenUser(ctx context.Context, token string) (string, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// CampusDirectory checks campuses referenced during registration.
type CampusDirectory interface {
	Get(ctx context.Context, id int64) (*campus.Campus, error)
}

// TokenConfig carries the JWT signing parameters.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service handles registration and credential flows.
type Service struct {
	store    Store
	campuses CampusDirectory
	tokens   TokenConfig
}

// NewService creates a service backed by a store.
func NewService(store Store, campuses CampusDirectory, tokens TokenConfig) *Service {
	return &Service{store: store, campuses: campuses, tokens: tokens}
}

// RegisterInput are the fields accepted at sign-up.
type RegisterInput struct {
	CampusID  int64  `json:"campus_id" binding:"required"`
	StudentNo string `json:"student_no" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

// Register creates a student account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, auth.TokenPair, error) {
	if !studentNoPattern.MatchString(in.StudentNo) {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeValidationError, "student number must look like 2024-123456")
	}
	if len(in.Password) < 8 {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeValidationError, "password must be at least 8 characters")
	}
	c, err := s.campuses.Get(ctx, in.CampusID)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if c == nil || !c.IsActive {
		return User{}, auth.TokenPair{}, apierr.Newf(apierr.CodeValidationError, "campus %d is not open for registration", in.CampusID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	u, err := s.store.Insert(ctx, User{
		ID:           uuid.NewString(),
		CampusID:     in.CampusID,
		Role:         campus.RoleStudent,
		StudentNo:    in.StudentNo,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials by email or student number.
func (s *Service) Login(ctx context.Context, identifier, password string) (User, auth.TokenPair, error) {
	var (
		u   *User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.store.ByEmail(ctx, identifier)
	} else {
		u, err = s.store.ByStudentNo(ctx, identifier)
	}
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if u == nil {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.issue(ctx, *u)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return *u, pair, nil
}

// Refresh rotates a refresh token: the used token is revoked and a fresh
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (User, auth.TokenPair, error) {
	if _, err := auth.Parse(refreshToken, s.tokens.SigningKey, s.tokens.Issuer); err != nil {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeUnauthorized, "invalid refresh token")
	}
	userID, err := s.store.RefreshTokenUser(ctx, refreshToken)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if userID == "" {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeUnauthorized, "refresh token is no longer valid")
	}
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if u == nil {
		return User{}, auth.TokenPair{}, apierr.New(apierr.CodeUnauthorized, "account no longer exists")
	}
	if err := s.store.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return User{}, auth.TokenPair{}, err
	}

	pair, err := s.issue(ctx, *u)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return *u, pair, nil
}

// Get returns a user by id, nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.ByID(ctx, id)
}

func (s *Service) issue(ctx context.Context, u User) (auth.TokenPair, error) {
	pair, err := auth.Issue(auth.Identity{
		UserID:              u.ID,
		Role:                string(u.Role),
		CampusID:            u.CampusID,
		AccessibleCampusIDs: u.AccessibleCampusIDs,
	}, s.tokens.Issuer, s.tokens.SigningKey, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if err := s.store.SaveRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		return auth.TokenPair{}, err
	}
	return pair, nil
}
