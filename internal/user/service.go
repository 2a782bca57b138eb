package user

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/takio1981/my-todo-fullstack/internal/auth"
	"github.com/takio1981/my-todo-fullstack/internal/observability"
	"github.com/takio1981/my-todo-fullstack/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSuchUser         = fmt.Errorf("%w: no such user", ErrInvalidCredentials)
	ErrWrongPassword      = fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	ErrUsernameTaken      = errors.New("username already exists")
)

type UserService struct {
	repo UserRepositoryInterface
	db   *sql.DB
}

type UserServiceInterface interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Verify(ctx context.Context, username, password string) (*User, error)
}

func NewUserService(repo UserRepositoryInterface, db *sql.DB) UserServiceInterface {
	return &UserService{
		repo: repo,
		db:   db,
	}
}

// Register stores a new user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password string) (*User, error) {
	if len(password) > auth.MaxPasswordBytes {
		observability.GlobalMetrics.Registration("invalid")
		return nil, auth.ErrPasswordTooLong
	}

	existing, err := s.repo.GetByUsername(ctx, s.db, username)
	switch {
	case err == nil && existing != nil:
		observability.GlobalMetrics.Registration("taken")
		return nil, ErrUsernameTaken
	case err != nil && !errors.Is(err, ErrUserNotFound):
		observability.GlobalMetrics.Registration("error")
		return nil, err
	}

	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		observability.GlobalMetrics.Registration("error")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hashedPassword,
	}

	err = utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if utils.IsPGUniqueViolation(err) {
			observability.GlobalMetrics.Registration("taken")
			return nil, ErrUsernameTaken
		}
		observability.GlobalMetrics.Registration("error")
		return nil, err
	}

	observability.GlobalMetrics.Registration("success")
	return user, nil
}

// Verify returns the stored user when password matches. Rejections wrap
// ErrInvalidCredentials as either ErrNoSuchUser or ErrWrongPassword.
func (s *UserService) Verify(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Spend one comparison so a missing user costs the same as a wrong password.
			_ = auth.ComparePasswordHash(dummyHash(), password)
			observability.GlobalMetrics.LoginAttempt("no_such_user")
			return nil, ErrNoSuchUser
		}
		observability.GlobalMetrics.LoginAttempt("error")
		return nil, err
	}

	if err := auth.ComparePasswordHash([]byte(user.PasswordHash), password); err != nil {
		logrus.WithField("username", username).Info("Password mismatch")
		observability.GlobalMetrics.LoginAttempt("wrong_password")
		return nil, ErrWrongPassword
	}

	observability.GlobalMetrics.LoginAttempt("success")
	return user, nil
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue []byte
)

func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		hash, err := auth.GeneratePasswordHash(hex.EncodeToString(buf))
		if err != nil {
			logrus.WithError(err).Error("Failed to build dummy password hash")
			return
		}
		dummyHashValue = []byte(hash)
	})
	return dummyHashValue
}
