package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals a wrong username or password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrWeakPassword signals the password doesn't meet requirements.
	ErrWeakPassword = errors.New("identity: password must be at least 8 characters")
)

// Service handles account business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new identity service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// CreateUser registers a new account. A taken username surfaces as
// ErrDuplicateUsername so callers can report it without treating it as fatal.
func (s *Service) CreateUser(ctx context.Context, username, password string, role Role, displayName string) (*User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" || displayName == "" {
		return nil, fmt.Errorf("identity: username and display name are required")
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("identity: invalid role %q", role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         role,
		DisplayName:  displayName,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// VerifyCredentials checks a username/password pair and returns the matching
// user. Unknown users and wrong passwords are indistinguishable to the caller.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates a user and returns a signed JWT alongside the account.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("identity: generate token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

// GetUserByID retrieves account information by ID.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole returns the users holding one role, e.g. the researchers
// offered as assignees on the submission form.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("identity: invalid role %q", role)
	}
	return s.repo.ListByRole(ctx, role)
}

// ListAll returns every account.
func (s *Service) ListAll(ctx context.Context) ([]User, error) {
	return s.repo.ListAll(ctx)
}

// DeleteUser removes an account. Requests that reference the user keep
// their sales_id/researcher_id values; the schema does not cascade.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ChangePassword re-hashes and stores a new password for the account.
func (s *Service) ChangePassword(ctx context.Context, id int64, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, string(passwordHash))
}

// VerifyToken validates a JWT and returns the user ID and role it carries.
func (s *Service) VerifyToken(tokenString string) (int64, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("identity: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		rawID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, "", fmt.Errorf("identity: invalid user_id in token")
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return 0, "", fmt.Errorf("identity: invalid role in token")
		}
		role := Role(roleStr)
		if !ValidRole(role) {
			return 0, "", fmt.Errorf("identity: invalid role %q in token", roleStr)
		}
		return int64(rawID), role, nil
	}

	return 0, "", fmt.Errorf("identity: invalid token")
}

func (s *Service) generateToken(userID int64, role Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
