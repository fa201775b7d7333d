package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/services"
)

type ReportHandler struct {
  reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
  return &ReportHandler{reportService: reportService}
}

func (rh *ReportHandler) CreateReport(c *gin.Context) {
  if rh.reportService == nil {
    respondError(c, apperr.New(http.StatusServiceUnavailable, "report_unavailable", "Geração de relatórios indisponível no momento"))
    return
  }
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  url, err := rh.reportService.CreateReport(c.Request.Context(), req.Content)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "report_url": url})
}
