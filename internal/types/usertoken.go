package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// UserToken is an audit trail of issued session tokens. Validity is decided
// by the signed tokens themselves, not by this table.
type UserToken struct {
  ID                  uuid.UUID                 `gorm:"type:char(36);primaryKey"`
  UserID              uuid.UUID                 `gorm:"type:char(36);index;not null"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`

  // 512 keeps the unique index inside mysql's utf8mb4 key-length limit
  // while still fitting a signed JWT.
  AccessToken         string                    `gorm:"type:varchar(512);uniqueIndex;not null;column:access_token"`
  RefreshToken        string                    `gorm:"type:varchar(512);uniqueIndex;not null;column:refresh_token"`
  ExpiresAt           time.Time                 `gorm:"column:expires_at"`

  CreatedAt           time.Time                 `gorm:"not null"`
}

func (UserToken) TableName() string {
  return "user_token"
}

func (t *UserToken) BeforeCreate(tx *gorm.DB) error {
  if t.ID == uuid.Nil {
    t.ID = uuid.New()
  }
  return nil
}
