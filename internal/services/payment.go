package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
)

// PaymentService is the mock checkout: no gateway, no charge, it just
// flips the premium flag and sends a receipt.
type PaymentService interface {
  ProcessMockPayment(ctx context.Context) error
}

type paymentService struct {
  log          *logger.Logger
  userRepo     repos.UserRepo
  entitlement  EntitlementService
  emailService EmailService
}

func NewPaymentService(log *logger.Logger, userRepo repos.UserRepo, entitlement EntitlementService, emailService EmailService) PaymentService {
  serviceLog := log.With("service", "PaymentService")
  return &paymentService{
    log:          serviceLog,
    userRepo:     userRepo,
    entitlement:  entitlement,
    emailService: emailService,
  }
}

func (ps *paymentService) ProcessMockPayment(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperr.ErrMissingToken
  }
  users, err := ps.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    ps.log.Warn("Failed to load user for payment, Cannot proceed. Returning error.", "error", err)
    return fmt.Errorf("failed to load user: %w", err)
  }
  if len(users) == 0 {
    return apperr.ErrNotFound
  }
  user := users[0]

  if err := ps.entitlement.MarkPremium(ctx, user.ID); err != nil {
    return err
  }

  // Receipt is best effort only.
  if ps.emailService != nil {
    if eErr := ps.emailService.SendEmail(ctx, user.Email, "Upgrade AutoAssist Premium",
      "Seu upgrade para o plano premium foi concluído. Bom proveito!", ""); eErr != nil {
      ps.log.Warn("Failed to send payment receipt email", "userID", user.ID, "error", eErr)
    }
  }
  return nil
}
