package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/types"
)

type ChatMessageRepo interface {
  CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.ChatMessage) ([]*types.ChatMessage, error)

  // GetRecentByUserID returns the newest messages first, at most limit rows.
  GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatMessage, error)

  FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type chatMessageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
  return &chatMessageRepo{
    db:  db,
    log: baseLog.With("repo", "ChatMessageRepo"),
  }
}

func (cmr *chatMessageRepo) CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.ChatMessage) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  if len(msgs) == 0 {
    return msgs, nil
  }
  if err := transaction.WithContext(ctx).Create(&msgs).Error; err != nil {
    cmr.log.Error("Failed to create chat messages", "error", err)
    return nil, err
  }
  return msgs, nil
}

func (cmr *chatMessageRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var msgs []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC").
    Limit(limit).
    Find(&msgs).Error; err != nil {
    cmr.log.Error("Failed to get chat messages by userID", "error", err)
    return nil, err
  }
  return msgs, nil
}

func (cmr *chatMessageRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  if len(userIDs) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Where("user_id IN ?", userIDs).
    Delete(&types.ChatMessage{}).Error; err != nil {
    cmr.log.Error("Failed to delete chat messages by userIDs", "error", err)
    return err
  }
  return nil
}
