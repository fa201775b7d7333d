package handlers

import (
  "net/http"
  "strings"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/services"
  "github.com/autoassist/autoassist-backend/internal/types"
)

type AuthHandler struct {
  authService services.AuthService
  entitlement services.EntitlementService
}

func NewAuthHandler(authService services.AuthService, entitlement services.EntitlementService) *AuthHandler {
  return &AuthHandler{authService: authService, entitlement: entitlement}
}

func (ah *AuthHandler) Cadastro(c *gin.Context) {
  var req struct {
    Nome     string `json:"nome"`
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  user := types.User{
    Nome:     req.Nome,
    Email:    req.Email,
    Password: req.Password,
  }
  if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Cadastro realizado com sucesso"})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  user, tokens, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "access_token":  tokens.AccessToken,
    "refresh_token": tokens.RefreshToken,
    "expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
    "user": gin.H{
      "id":            user.ID,
      "nome":          user.Nome,
      "email":         user.Email,
      "is_premium":    user.IsPremium,
      "trial_expired": ah.entitlement.IsTrialExpired(user, time.Now()),
    },
  })
}

// Refresh sits outside RequireAuth: its credential is the refresh token
// itself, carried in the Authorization header or the body.
func (ah *AuthHandler) Refresh(c *gin.Context) {
  refreshToken := ""
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    refreshToken = strings.TrimSpace(authHeader[7:])
  }
  if refreshToken == "" {
    var req struct {
      RefreshToken string `json:"refresh_token"`
    }
    if err := c.ShouldBindJSON(&req); err == nil {
      refreshToken = req.RefreshToken
    }
  }
  result, err := ah.authService.Refresh(c.Request.Context(), refreshToken)
  if err != nil {
    respondError(c, err)
    return
  }
  resp := gin.H{
    "access_token": result.AccessToken,
    "expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
  }
  if result.RefreshToken != "" {
    resp["refresh_token"] = result.RefreshToken
  }
  c.JSON(http.StatusOK, resp)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.Logout(c.Request.Context()); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ah *AuthHandler) VerifyToken(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    respondError(c, apperr.ErrMissingToken)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "user_id": rd.UserID})
}
