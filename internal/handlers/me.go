package handlers

import (
  "net/http"
  "time"

  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/services"
  "github.com/autoassist/autoassist-backend/internal/types"
)

type MeHandler struct {
  meService   services.MeService
  entitlement services.EntitlementService
}

func NewMeHandler(meService services.MeService, entitlement services.EntitlementService) *MeHandler {
  return &MeHandler{meService: meService, entitlement: entitlement}
}

func (mh *MeHandler) GetUser(c *gin.Context) {
  user, err := mh.meService.GetMe(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, mh.profileResponse(user))
}

func (mh *MeHandler) UpdateUser(c *gin.Context) {
  var req struct {
    Nome  string `json:"nome"`
    Email string `json:"email"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  if req.Nome == "" && req.Email == "" {
    respondError(c, apperr.Validation("Nada para atualizar"))
    return
  }

  var user *types.User
  var err error
  if req.Nome != "" {
    if user, err = mh.meService.UpdateMyName(c.Request.Context(), req.Nome); err != nil {
      respondError(c, err)
      return
    }
  }
  if req.Email != "" {
    if user, err = mh.meService.UpdateMyEmail(c.Request.Context(), req.Email); err != nil {
      respondError(c, err)
      return
    }
  }
  c.JSON(http.StatusOK, mh.profileResponse(user))
}

func (mh *MeHandler) profileResponse(user *types.User) gin.H {
  return gin.H{
    "id":            user.ID,
    "nome":          user.Nome,
    "email":         user.Email,
    "is_premium":    user.IsPremium,
    "data_criacao":  user.CreatedAt,
    "trial_expired": mh.entitlement.IsTrialExpired(user, time.Now()),
  }
}
