package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	domain "todoapi/internal/domain/model"
	"todoapi/internal/repository"
)

const tokenTTL = 7 * 24 * time.Hour

const maxUsernameLength = 100

// UserService handles registration and login. Passwords are stored as
// bcrypt hashes; logins are answered with an HS256 token whose subject is
// the user id.
type UserService struct {
	repo   repository.UserRepository
	secret []byte
}

func NewUserService(repo repository.UserRepository, secret []byte) *UserService {
	return &UserService{repo: repo, secret: secret}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, &domain.ValidationError{Field: "username", Reason: "must not be empty"}
	}

	if len(username) > maxUsernameLength {
		return nil, &domain.ValidationError{Field: "username", Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLength)}
	}

	if password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "must not be empty"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the credentials and returns a signed token plus the user.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, user, nil
}
