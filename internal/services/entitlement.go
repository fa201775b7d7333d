package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/types"
)

// EntitlementService decides whether an account may use the assistant: a
// premium flag lifts the gate for good, everyone else gets a time-boxed
// trial counted in whole days from account creation.
type EntitlementService interface {
  IsTrialExpired(user *types.User, now time.Time) bool
  MarkPremium(ctx context.Context, userID uuid.UUID) error
}

type entitlementService struct {
  log       *logger.Logger
  userRepo  repos.UserRepo
  trialDays int
}

func NewEntitlementService(log *logger.Logger, userRepo repos.UserRepo, trialDays int) EntitlementService {
  serviceLog := log.With("service", "EntitlementService")
  return &entitlementService{log: serviceLog, userRepo: userRepo, trialDays: trialDays}
}

// IsTrialExpired is inclusive on the boundary: a free account created
// exactly trialDays ago is already expired. Stored timestamps are compared
// in UTC regardless of what the driver handed back.
func (es *entitlementService) IsTrialExpired(user *types.User, now time.Time) bool {
  if user == nil {
    return true
  }
  if user.IsPremium {
    return false
  }
  elapsed := now.UTC().Sub(user.CreatedAt.UTC())
  days := int(elapsed.Hours() / 24)
  return days >= es.trialDays
}

// MarkPremium flips the flag unconditionally. The payment integration is a
// stub that always succeeds, so there is nothing to verify here; repeated
// calls are harmless.
func (es *entitlementService) MarkPremium(ctx context.Context, userID uuid.UUID) error {
  if err := es.userRepo.SetPremium(ctx, nil, userID, true); err != nil {
    es.log.Warn("Failed to mark user premium, Cannot proceed. Returning error.", "userID", userID, "error", err)
    return fmt.Errorf("failed to mark user premium: %w", err)
  }
  es.log.Info("User upgraded to premium", "userID", userID)
  return nil
}
