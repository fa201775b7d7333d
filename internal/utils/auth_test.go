package utils

import (
  "strings"
  "testing"

  "github.com/autoassist/autoassist-backend/internal/types"
)

func TestHashAndCheckPassword(t *testing.T) {
  hash, err := HashPassword("segredo1")
  if err != nil {
    t.Fatalf("HashPassword: %v", err)
  }
  if hash == "segredo1" {
    t.Fatal("hash equals plaintext")
  }
  if !CheckPassword(hash, "segredo1") {
    t.Fatal("correct password rejected")
  }
  if CheckPassword(hash, "errada99") {
    t.Fatal("wrong password accepted")
  }
}

func TestHashPasswordDistinctSalts(t *testing.T) {
  h1, err := HashPassword("segredo1")
  if err != nil {
    t.Fatalf("first hash: %v", err)
  }
  h2, err := HashPassword("segredo1")
  if err != nil {
    t.Fatalf("second hash: %v", err)
  }
  if h1 == h2 {
    t.Fatal("two hashes of the same password should differ")
  }
  if !CheckPassword(h1, "segredo1") || !CheckPassword(h2, "segredo1") {
    t.Fatal("both hashes must verify the original password")
  }
}

func TestLongPasswordTruncationIsSymmetric(t *testing.T) {
  base := strings.Repeat("a", 72)
  long := base + "tail-that-bcrypt-would-ignore"

  hash, err := HashPassword(long)
  if err != nil {
    t.Fatalf("HashPassword: %v", err)
  }
  if !CheckPassword(hash, long) {
    t.Fatal("original long password rejected")
  }
  // The bytes beyond 72 never reach bcrypt, so any suffix matches.
  if !CheckPassword(hash, base+"different-tail") {
    t.Fatal("truncation must apply identically on hash and verify")
  }
  if CheckPassword(hash, base[:71]) {
    t.Fatal("a shorter password must not match")
  }
}

func TestValidateRegistration(t *testing.T) {
  valid := func() *types.User {
    return &types.User{Nome: "Ana", Email: "ana@example.com", Password: "segredo1"}
  }

  if err := ValidateRegistration(valid()); err != nil {
    t.Fatalf("valid user rejected: %v", err)
  }

  cases := []struct {
    name   string
    mutate func(u *types.User)
  }{
    {"nil nome", func(u *types.User) { u.Nome = "" }},
    {"one-char nome", func(u *types.User) { u.Nome = "A" }},
    {"email without at", func(u *types.User) { u.Email = "ana.example.com" }},
    {"email without dot", func(u *types.User) { u.Email = "ana@examplecom" }},
    {"password too short", func(u *types.User) { u.Password = "12345" }},
    {"password too long", func(u *types.User) { u.Password = strings.Repeat("x", 73) }},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      u := valid()
      tc.mutate(u)
      if err := ValidateRegistration(u); err == nil {
        t.Fatal("expected validation error")
      }
    })
  }

  boundary := valid()
  boundary.Password = strings.Repeat("x", 72)
  if err := ValidateRegistration(boundary); err != nil {
    t.Fatalf("72-byte password should pass: %v", err)
  }
}

func TestValidateLogin(t *testing.T) {
  if err := ValidateLogin("ana@example.com", "segredo1"); err != nil {
    t.Fatalf("valid login rejected: %v", err)
  }
  if err := ValidateLogin("", "segredo1"); err == nil {
    t.Fatal("empty email accepted")
  }
  if err := ValidateLogin("ana@example.com", ""); err == nil {
    t.Fatal("empty password accepted")
  }
}
