package middleware

import (
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLog := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLog, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractBearerToken(c)
    if tokenString == "" {
      abortWithError(c, apperr.ErrMissingToken)
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      abortWithError(c, err)
      return
    }
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      abortWithError(c, apperr.ErrInvalidToken)
      return
    }
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

func extractBearerToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return strings.TrimSpace(authHeader[7:])
  }
  return ""
}

func abortWithError(c *gin.Context, err error) {
  ae := apperr.From(err)
  c.AbortWithStatusJSON(ae.Status, gin.H{"error": ae.Message, "code": ae.Code})
}
