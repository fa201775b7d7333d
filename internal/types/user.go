package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

type User struct {
  ID                  uuid.UUID                 `gorm:"type:char(36);primaryKey" json:"id"`

  Nome                string                    `gorm:"not null;column:nome" json:"nome"`
  Email               string                    `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password            string                    `gorm:"not null;column:password" json:"-"`
  IsPremium           bool                      `gorm:"not null;default:false;column:is_premium" json:"is_premium"`

  CreatedAt           time.Time                 `gorm:"not null" json:"data_criacao"`
  UpdatedAt           time.Time                 `gorm:"not null" json:"-"`
}

func (User) TableName() string {
  return "users"
}

// BeforeCreate assigns the key in Go so the same schema works on postgres
// and mysql (char(36) instead of a db-side uuid default).
func (u *User) BeforeCreate(tx *gorm.DB) error {
  if u.ID == uuid.Nil {
    u.ID = uuid.New()
  }
  if u.CreatedAt.IsZero() {
    u.CreatedAt = time.Now().UTC()
  }
  return nil
}
