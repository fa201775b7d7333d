package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// ChatMessage is one user/assistant exchange. Rows are written once and
// never updated.
type ChatMessage struct {
  ID                  uuid.UUID                 `gorm:"type:char(36);primaryKey" json:"-"`
  UserID              uuid.UUID                 `gorm:"type:char(36);index;not null" json:"-"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Categoria           string                    `gorm:"not null;default:geral;column:categoria" json:"categoria"`
  MensagemUsuario     string                    `gorm:"type:text;not null;column:mensagem_usuario" json:"mensagem_usuario"`
  RespostaIA          string                    `gorm:"type:text;not null;column:resposta_ia" json:"resposta_ia"`

  CreatedAt           time.Time                 `gorm:"not null;index" json:"data_criacao"`
}

func (ChatMessage) TableName() string {
  return "chats"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
  if m.ID == uuid.Nil {
    m.ID = uuid.New()
  }
  if m.CreatedAt.IsZero() {
    m.CreatedAt = time.Now().UTC()
  }
  return nil
}
