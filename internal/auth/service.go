// Package auth implements email/password authentication and JWT issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalwardrobe/service/internal/config"
	"github.com/digitalwardrobe/service/internal/user"
)

const tokenTTL = 30 * 24 * time.Hour

// ErrInvalidCredentials is returned when the email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when the email is already registered.
var ErrEmailTaken = errors.New("email already exists")

// Result holds a successful authentication outcome.
type Result struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Service contains the business logic for email/password authentication.
type Service struct {
	userSvc *user.Service
	cfg     *config.Config
}

// NewService creates a new auth Service.
func NewService(userSvc *user.Service, cfg *config.Config) *Service {
	return &Service{userSvc: userSvc, cfg: cfg}
}

// Signup creates a new user account and issues a JWT token.
func (s *Service) Signup(ctx context.Context, name, email, password, gender string) (*Result, error) {
	normalizedEmail := normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.userSvc.Create(ctx, strings.TrimSpace(name), normalizedEmail, string(hash), normalizeGender(gender))
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{Token: token, User: u}, nil
}

// Login verifies the credentials and issues a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.userSvc.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if s.userSvc.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{Token: token, User: u}, nil
}

// issueToken creates a signed JWT for the given user.
func (s *Service) issueToken(u *user.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  u.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeGender(gender string) string {
	g := strings.ToLower(strings.TrimSpace(gender))
	if g == "" {
		return "unspecified"
	}
	return g
}
