package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/naydelinzavala7/back-login-mongo/internal/auth"
	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
	"github.com/naydelinzavala7/back-login-mongo/internal/security"
)

var ErrInvalidCredentials = errors.New("passwords do not match")

// Store is the persisted user collection.
type Store interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
	UpdateByID(ctx context.Context, id string, patch user.Patch) (user.User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	ListAll(ctx context.Context) ([]user.User, error)
	Ping(ctx context.Context) error
}

// TokenIssuer signs a bearer token for a user id and display name.
type TokenIssuer interface {
	Issue(userID, name string) (string, error)
}

type Service struct {
	store  Store
	tokens TokenIssuer
	hash   func(string) (string, error)
	verify func(hash, plain string) bool
}

func NewService(store Store, tokens TokenIssuer) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		hash:   security.HashPassword,
		verify: security.VerifyPassword,
	}
}

// Register hashes the password and inserts the user. The store's unique email
// constraint is the only uniqueness check.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Insert(ctx, req.NewUser(hash))
	if err != nil {
		return user.User{}, fmt.Errorf("register %q: %w", req.Email, err)
	}

	return u, nil
}

// Login checks the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, req user.LoginRequest) (string, error) {
	u, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("login %q: %w", req.Email, err)
	}

	if !s.verify(u.PasswordHash, req.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.DisplayName())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

func (s *Service) List(ctx context.Context) ([]user.User, error) {
	users, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	return s.store.FindByID(ctx, id)
}

// Delete removes exactly the user with id, or reports user.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return user.ErrNotFound
	}
	return nil
}

// Update replaces the name fields and always re-hashes the password. Email and id are kept.
func (s *Service) Update(ctx context.Context, req user.UpdateRequest) (user.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.UpdateByID(ctx, req.ID, req.Patch(hash))
	if err != nil {
		return user.User{}, fmt.Errorf("update %q: %w", req.ID, err)
	}

	return u, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

var _ TokenIssuer = (*auth.Manager)(nil)
