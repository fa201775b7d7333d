package apperr

import (
  "errors"
  "fmt"
  "net/http"
)

// Error is a client-facing failure with a stable machine-readable code.
// The message is safe to echo to the caller; anything sensitive stays in
// the logs.
type Error struct {
  Status      int
  Code        string
  Message     string
}

func (e *Error) Error() string {
  return e.Message
}

func New(status int, code, message string) *Error {
  return &Error{Status: status, Code: code, Message: message}
}

// Validation is a 400 with a per-field message. Validation failures are
// expected traffic, never incidents.
func Validation(message string) *Error {
  return &Error{Status: http.StatusBadRequest, Code: "validation_error", Message: message}
}

func Validationf(format string, args ...interface{}) *Error {
  return Validation(fmt.Sprintf(format, args...))
}

var (
  // Auth failures. The three token codes must stay distinct so clients can
  // tell "log in again" from "retry silently".
  ErrInvalidCredentials  = New(http.StatusUnauthorized, "invalid_credentials", "Email ou senha incorretos")
  ErrMissingToken        = New(http.StatusUnauthorized, "missing_token", "Token de autenticação ausente")
  ErrInvalidToken        = New(http.StatusUnauthorized, "invalid_token", "Token inválido")
  ErrExpiredToken        = New(http.StatusUnauthorized, "token_expired", "Token expirado")

  ErrDuplicateEmail      = New(http.StatusConflict, "duplicate_email", "Email já cadastrado")
  ErrNotFound            = New(http.StatusNotFound, "not_found", "Usuário não encontrado")

  // Entitlement failures, distinct from auth failures.
  ErrTrialExpired        = New(http.StatusPaymentRequired, "TRIAL_EXPIRED", "Período de teste expirado. Faça upgrade para continuar")
  ErrPremiumRequired     = New(http.StatusForbidden, "premium_required", "Recurso disponível apenas para assinantes premium")

  // Upstream model-provider failures. Messages never leak provider detail.
  ErrUpstreamQuota       = New(http.StatusTooManyRequests, "upstream_quota", "Limite de uso da IA atingido. Tente novamente mais tarde")
  ErrUpstreamTimeout     = New(http.StatusServiceUnavailable, "upstream_timeout", "A IA demorou demais para responder. Tente novamente")
  ErrUpstream            = New(http.StatusInternalServerError, "upstream_error", "Erro ao processar sua mensagem. Tente novamente")

  ErrRateLimited         = New(http.StatusTooManyRequests, "rate_limited", "Muitas requisições. Tente novamente mais tarde")

  ErrInternal            = New(http.StatusInternalServerError, "internal_error", "Erro interno do servidor")
)

// From extracts the *Error behind err, falling back to the generic 500 so
// internal exception text never reaches a client.
func From(err error) *Error {
  var ae *Error
  if errors.As(err, &ae) {
    return ae
  }
  return ErrInternal
}
