package services

import (
  "context"
  "sort"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/autoassist/autoassist-backend/internal/types"
)

// In-memory repo fakes. The services always pass tx == nil, so the fakes
// ignore it.

type fakeUserRepo struct {
  users map[uuid.UUID]*types.User

  createErr error
  getErr    error
  updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
  return &fakeUserRepo{users: make(map[uuid.UUID]*types.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  if f.createErr != nil {
    return nil, f.createErr
  }
  for _, u := range users {
    if u.ID == uuid.Nil {
      u.ID = uuid.New()
    }
    if u.CreatedAt.IsZero() {
      u.CreatedAt = time.Now().UTC()
    }
    f.users[u.ID] = u
  }
  return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
  if f.getErr != nil {
    return nil, f.getErr
  }
  var out []*types.User
  for _, id := range userIDs {
    if u, ok := f.users[id]; ok {
      out = append(out, u)
    }
  }
  return out, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
  if f.getErr != nil {
    return nil, f.getErr
  }
  var out []*types.User
  for _, email := range emails {
    for _, u := range f.users {
      if u.Email == email {
        out = append(out, u)
      }
    }
  }
  return out, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  if f.getErr != nil {
    return false, f.getErr
  }
  for _, u := range f.users {
    if u.Email == email {
      return true, nil
    }
  }
  return false, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  if f.updateErr != nil {
    return nil, f.updateErr
  }
  for _, u := range users {
    f.users[u.ID] = u
  }
  return users, nil
}

func (f *fakeUserRepo) SetPremium(ctx context.Context, tx *gorm.DB, userID uuid.UUID, premium bool) error {
  if f.updateErr != nil {
    return f.updateErr
  }
  if u, ok := f.users[userID]; ok {
    u.IsPremium = premium
  }
  return nil
}

func (f *fakeUserRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  for _, id := range userIDs {
    delete(f.users, id)
  }
  return nil
}

type fakeUserTokenRepo struct {
  rows []*types.UserToken
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
  return &fakeUserTokenRepo{}
}

func (f *fakeUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
  for _, t := range userTokens {
    if t.ID == uuid.Nil {
      t.ID = uuid.New()
    }
    f.rows = append(f.rows, t)
  }
  return userTokens, nil
}

func (f *fakeUserTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error) {
  var out []*types.UserToken
  for _, row := range f.rows {
    for _, id := range userIDs {
      if row.UserID == id {
        out = append(out, row)
      }
    }
  }
  return out, nil
}

func (f *fakeUserTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
  var out []*types.UserToken
  for _, row := range f.rows {
    for _, tok := range accessTokens {
      if row.AccessToken == tok {
        out = append(out, row)
      }
    }
  }
  return out, nil
}

func (f *fakeUserTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
  var out []*types.UserToken
  for _, row := range f.rows {
    for _, tok := range refreshTokens {
      if row.RefreshToken == tok {
        out = append(out, row)
      }
    }
  }
  return out, nil
}

func (f *fakeUserTokenRepo) FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error {
  doomed := make(map[uuid.UUID]bool, len(userTokens))
  for _, t := range userTokens {
    doomed[t.ID] = true
  }
  f.rows = filterTokens(f.rows, func(row *types.UserToken) bool { return !doomed[row.ID] })
  return nil
}

func (f *fakeUserTokenRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  doomed := make(map[uuid.UUID]bool, len(userIDs))
  for _, id := range userIDs {
    doomed[id] = true
  }
  f.rows = filterTokens(f.rows, func(row *types.UserToken) bool { return !doomed[row.UserID] })
  return nil
}

func (f *fakeUserTokenRepo) FullDeleteExpired(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) error {
  f.rows = filterTokens(f.rows, func(row *types.UserToken) bool {
    return row.UserID != userID || !row.ExpiresAt.Before(now)
  })
  return nil
}

func filterTokens(rows []*types.UserToken, keep func(*types.UserToken) bool) []*types.UserToken {
  out := rows[:0]
  for _, row := range rows {
    if keep(row) {
      out = append(out, row)
    }
  }
  return out
}

type fakeChatRepo struct {
  msgs []*types.ChatMessage

  createErr error
  getErr    error
}

func newFakeChatRepo() *fakeChatRepo {
  return &fakeChatRepo{}
}

func (f *fakeChatRepo) CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.ChatMessage) ([]*types.ChatMessage, error) {
  if f.createErr != nil {
    return nil, f.createErr
  }
  for _, m := range msgs {
    if m.ID == uuid.Nil {
      m.ID = uuid.New()
    }
    if m.CreatedAt.IsZero() {
      m.CreatedAt = time.Now().UTC()
    }
    f.msgs = append(f.msgs, m)
  }
  return msgs, nil
}

func (f *fakeChatRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
  if f.getErr != nil {
    return nil, f.getErr
  }
  var mine []*types.ChatMessage
  for _, m := range f.msgs {
    if m.UserID == userID {
      mine = append(mine, m)
    }
  }
  sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
  if len(mine) > limit {
    mine = mine[:limit]
  }
  return mine, nil
}

func (f *fakeChatRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  doomed := make(map[uuid.UUID]bool, len(userIDs))
  for _, id := range userIDs {
    doomed[id] = true
  }
  out := f.msgs[:0]
  for _, m := range f.msgs {
    if !doomed[m.UserID] {
      out = append(out, m)
    }
  }
  f.msgs = out
  return nil
}

// Collaborator fakes.

type fakeGenerator struct {
  reply string
  err   error
  calls int

  lastMessage   string
  lastCategoria string
  lastHistory   []*types.ChatMessage
}

func (f *fakeGenerator) Generate(ctx context.Context, message string, history []*types.ChatMessage, categoria string) (string, error) {
  f.calls++
  f.lastMessage = message
  f.lastCategoria = categoria
  f.lastHistory = history
  if f.err != nil {
    return "", f.err
  }
  return f.reply, nil
}

type fakeAnalyzer struct {
  reply string
  err   error
  calls int

  lastImage    []byte
  lastQuestion string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte, question string) (string, error) {
  f.calls++
  f.lastImage = image
  f.lastQuestion = question
  if f.err != nil {
    return "", f.err
  }
  return f.reply, nil
}

type fakeEmailService struct {
  sent []string
  err  error
}

func (f *fakeEmailService) SendEmail(ctx context.Context, toEmail, subject, plainText, htmlContent string) error {
  if f.err != nil {
    return f.err
  }
  f.sent = append(f.sent, toEmail)
  return nil
}
