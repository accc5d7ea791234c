package user

import (
	"context"
	"fmt"
	"time"

	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/pkg/id"
	"github.com/timeweaver-api/internal/pkg/token"
	"github.com/timeweaver-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the minimal user access the service needs.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// SessionStore is needed to open the initial session on registration.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// Signer issues bearer tokens.
type Signer interface {
	Sign(userID, sessionID string) (string, error)
}

type Service interface {
	// Register creates the user and signs them in, returning the initial
	// session with its bearer and refresh tokens.
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
}

type service struct {
	users         UserStore
	sessions      SessionStore
	signer        Signer
	refreshExpiry time.Duration
}

func NewService(users UserStore, sessions SessionStore, signer Signer, refreshExpiry time.Duration) Service {
	return &service{
		users:         users,
		sessions:      sessions,
		signer:        signer,
		refreshExpiry: refreshExpiry,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", "", fmt.Errorf("username taken: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, "", "", err
	}

	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, "", "", err
	}
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshExpiry).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, "", "", err
	}
	bearer, err := s.signer.Sign(u.UserID, sess.SessionID)
	if err != nil {
		return nil, "", "", err
	}
	sess.User = u
	return sess, bearer, refreshToken, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// Update changes the caller's own profile. Email moves must not collide with
// another account; passwords are re-hashed before storage.
func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		if other, err := s.users.GetByEmail(ctx, *req.Email); err == nil && other.UserID != userID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hashed)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}

	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}
