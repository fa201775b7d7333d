package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/apperr"
)

// respondError shapes every failure as {"error": ..., "code": ...} with the
// status the error carries. Unknown errors collapse into a generic 500 so
// internals never reach the client.
func respondError(c *gin.Context, err error) {
  ae := apperr.From(err)
  c.JSON(ae.Status, gin.H{"error": ae.Message, "code": ae.Code})
}
