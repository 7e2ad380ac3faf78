package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"community_hub/internal/model"
	"community_hub/internal/repository/database"
	"community_hub/internal/session"
)

type UserService struct {
	deps     Deps
	repo     *database.UserRepository
	sessions session.Store
}

func NewUserService(d Deps) *UserService {
	d = d.withDefaults()
	return &UserService{
		deps:     d,
		repo:     &database.UserRepository{DB: d.DB},
		sessions: d.Sessions,
	}
}

// Register 注册，外部ID或用户名重复返回 ErrConflict
func (s *UserService) Register(ctx context.Context, username, externalID, password string) error {
	username = strings.TrimSpace(username)
	externalID = strings.TrimSpace(externalID)
	if username == "" || externalID == "" || password == "" {
		return newError(ErrInvalidInput, "username, user_id and password are required")
	}

	exists, err := s.repo.ExistsByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if exists {
		return newError(ErrConflict, "Username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return newError(ErrInvalidInput, "password is too long")
		}
		return err
	}

	user := &model.User{
		Username:     username,
		ExternalID:   &externalID,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return newError(ErrConflict, "Username already exists")
		}
		return err
	}
	return nil
}

// Login 校验凭证并创建会话，返回会话 token
func (s *UserService) Login(ctx context.Context, externalID, password string) (string, *model.User, error) {
	user, err := s.repo.FindByExternalID(ctx, strings.TrimSpace(externalID))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, newError(ErrUnauthorized, "Invalid credentials")
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, newError(ErrUnauthorized, "Invalid credentials")
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	s.deps.Log.WithField("user_id", user.ID).Info("user logged in")
	return token, user, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Current 会话对应的用户
func (s *UserService) Current(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "User is not logged in")
		}
		return nil, err
	}
	return user, nil
}
