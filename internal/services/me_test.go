package services

import (
  "context"
  "errors"
  "testing"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/types"
)

func newMeFixture(t *testing.T) (MeService, *fakeUserRepo, context.Context, *types.User) {
  t.Helper()
  userRepo := newFakeUserRepo()
  user := &types.User{Nome: "Ana", Email: "ana@example.com", Password: "x"}
  if _, err := userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
    t.Fatalf("seed user: %v", err)
  }
  svc := NewMeService(logger.NewNop(), userRepo)
  ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})
  return svc, userRepo, ctx, user
}

func TestGetMe(t *testing.T) {
  svc, _, ctx, user := newMeFixture(t)
  got, err := svc.GetMe(ctx)
  if err != nil {
    t.Fatalf("GetMe: %v", err)
  }
  if got.ID != user.ID || got.Email != "ana@example.com" {
    t.Fatalf("profile mismatch: %+v", got)
  }
}

func TestGetMeWithoutIdentity(t *testing.T) {
  svc, _, _, _ := newMeFixture(t)
  if _, err := svc.GetMe(context.Background()); !errors.Is(err, apperr.ErrMissingToken) {
    t.Fatalf("err = %v, want ErrMissingToken", err)
  }
}

func TestUpdateMyName(t *testing.T) {
  svc, userRepo, ctx, user := newMeFixture(t)
  updated, err := svc.UpdateMyName(ctx, "  Ana Clara  ")
  if err != nil {
    t.Fatalf("UpdateMyName: %v", err)
  }
  if updated.Nome != "Ana Clara" {
    t.Fatalf("nome = %q", updated.Nome)
  }
  if userRepo.users[user.ID].Nome != "Ana Clara" {
    t.Fatal("update not persisted")
  }

  if _, err := svc.UpdateMyName(ctx, "A"); apperr.From(err).Code != "validation_error" {
    t.Fatalf("short name: err = %v, want validation error", err)
  }
}

func TestUpdateMyEmail(t *testing.T) {
  svc, userRepo, ctx, user := newMeFixture(t)
  updated, err := svc.UpdateMyEmail(ctx, "NOVA@Example.com")
  if err != nil {
    t.Fatalf("UpdateMyEmail: %v", err)
  }
  if updated.Email != "nova@example.com" {
    t.Fatalf("email = %q, want lowercased", updated.Email)
  }
  if userRepo.users[user.ID].Email != "nova@example.com" {
    t.Fatal("update not persisted")
  }
}

func TestUpdateMyEmailRejectsTakenAddress(t *testing.T) {
  svc, userRepo, ctx, _ := newMeFixture(t)
  other := &types.User{Nome: "Bia", Email: "bia@example.com", Password: "x"}
  if _, err := userRepo.Create(context.Background(), nil, []*types.User{other}); err != nil {
    t.Fatalf("seed second user: %v", err)
  }
  if _, err := svc.UpdateMyEmail(ctx, "bia@example.com"); !errors.Is(err, apperr.ErrDuplicateEmail) {
    t.Fatalf("err = %v, want ErrDuplicateEmail", err)
  }
}

func TestUpdateMyEmailSameAddressIsNoop(t *testing.T) {
  svc, _, ctx, user := newMeFixture(t)
  updated, err := svc.UpdateMyEmail(ctx, "ANA@example.com")
  if err != nil {
    t.Fatalf("UpdateMyEmail: %v", err)
  }
  if updated.ID != user.ID || updated.Email != "ana@example.com" {
    t.Fatalf("noop update changed the profile: %+v", updated)
  }
}
