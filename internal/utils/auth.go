package utils

import (
  "strings"

  "golang.org/x/crypto/bcrypt"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/types"
)

// bcrypt silently fails above 72 bytes of input, so both the hash and the
// verify path truncate identically. Dropping the truncation on either side
// locks out every user with a long password.
const maxPasswordBytes = 72

const minPasswordBytes = 6

// MinNameRunes is the shortest accepted display name.
const MinNameRunes = 2

func truncatePassword(password string) []byte {
  b := []byte(password)
  if len(b) > maxPasswordBytes {
    b = b[:maxPasswordBytes]
  }
  return b
}

func HashPassword(password string) (string, error) {
  hashed, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
  if err != nil {
    return "", err
  }
  return string(hashed), nil
}

func CheckPassword(hashed, password string) bool {
  return bcrypt.CompareHashAndPassword([]byte(hashed), truncatePassword(password)) == nil
}

// ValidateRegistration checks the already-normalized user fields. Bounds
// come straight from the product rules: nome >= 2 chars, email must carry
// "@" and ".", senha between 6 and 72 bytes.
func ValidateRegistration(user *types.User) error {
  if user == nil {
    return apperr.Validation("Dados de cadastro ausentes")
  }
  if len([]rune(user.Nome)) < MinNameRunes {
    return apperr.Validation("Nome deve ter pelo menos 2 caracteres")
  }
  if err := ValidateEmail(user.Email); err != nil {
    return err
  }
  if len(user.Password) < minPasswordBytes {
    return apperr.Validation("Senha deve ter pelo menos 6 caracteres")
  }
  if len(user.Password) > maxPasswordBytes {
    return apperr.Validation("Senha não pode ter mais de 72 caracteres")
  }
  return nil
}

func ValidateEmail(email string) error {
  if email == "" || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
    return apperr.Validation("Email inválido")
  }
  return nil
}

func ValidateLogin(email, password string) error {
  if email == "" || password == "" {
    return apperr.Validation("Email e senha são obrigatórios")
  }
  return nil
}
