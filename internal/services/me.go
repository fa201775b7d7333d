package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/normalization"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/types"
  "github.com/autoassist/autoassist-backend/internal/utils"
)

// MeService reads and mutates the authenticated user's own profile.
type MeService interface {
  GetMe(ctx context.Context) (*types.User, error)
  UpdateMyName(ctx context.Context, nome string) (*types.User, error)
  UpdateMyEmail(ctx context.Context, email string) (*types.User, error)
}

type meService struct {
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewMeService(log *logger.Logger, userRepo repos.UserRepo) MeService {
  serviceLog := log.With("service", "MeService")
  return &meService{log: serviceLog, userRepo: userRepo}
}

func (ms *meService) GetMe(ctx context.Context) (*types.User, error) {
  return ms.loadSelf(ctx)
}

func (ms *meService) UpdateMyName(ctx context.Context, nome string) (*types.User, error) {
  nome = normalization.ParseInputString(nome)
  if len([]rune(nome)) < utils.MinNameRunes {
    return nil, apperr.Validation("Nome deve ter pelo menos 2 caracteres")
  }
  user, err := ms.loadSelf(ctx)
  if err != nil {
    return nil, err
  }
  user.Nome = nome
  if _, err := ms.userRepo.Update(ctx, nil, []*types.User{user}); err != nil {
    ms.log.Warn("Failed to update user name, Cannot proceed. Returning error.", "userID", user.ID, "error", err)
    return nil, fmt.Errorf("failed to update user: %w", err)
  }
  ms.log.Info("User name updated", "userID", user.ID)
  return user, nil
}

func (ms *meService) UpdateMyEmail(ctx context.Context, email string) (*types.User, error) {
  email = normalization.ParseEmail(email)
  if err := utils.ValidateEmail(email); err != nil {
    return nil, err
  }
  user, err := ms.loadSelf(ctx)
  if err != nil {
    return nil, err
  }
  if email == user.Email {
    return user, nil
  }
  exists, err := ms.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    ms.log.Warn("Failed to check email uniqueness, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
  }
  if exists {
    return nil, apperr.ErrDuplicateEmail
  }
  user.Email = email
  if _, err := ms.userRepo.Update(ctx, nil, []*types.User{user}); err != nil {
    ms.log.Warn("Failed to update user email, Cannot proceed. Returning error.", "userID", user.ID, "error", err)
    return nil, fmt.Errorf("failed to update user: %w", err)
  }
  ms.log.Info("User email updated", "userID", user.ID)
  return user, nil
}

func (ms *meService) loadSelf(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.ErrMissingToken
  }
  users, err := ms.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    ms.log.Warn("Failed to load user profile, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to load user: %w", err)
  }
  if len(users) == 0 {
    return nil, apperr.ErrNotFound
  }
  return users[0], nil
}
