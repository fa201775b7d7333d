package services

import (
  "bytes"
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "github.com/jung-kurt/gofpdf"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/normalization"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/types"
)

const reportSourceWindow = 5

// ReportService builds the premium "Relatório Técnico" PDF from the analysis
// text the client submits, supplemented by the user's most recent exchanges,
// and publishes it through the bucket.
type ReportService interface {
  CreateReport(ctx context.Context, content string) (string, error)
}

type reportService struct {
  log      *logger.Logger
  userRepo repos.UserRepo
  chatRepo repos.ChatMessageRepo
  bucket   BucketService
}

func NewReportService(log *logger.Logger, userRepo repos.UserRepo, chatRepo repos.ChatMessageRepo, bucket BucketService) ReportService {
  serviceLog := log.With("service", "ReportService")
  return &reportService{
    log:      serviceLog,
    userRepo: userRepo,
    chatRepo: chatRepo,
    bucket:   bucket,
  }
}

func (rs *reportService) CreateReport(ctx context.Context, content string) (string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return "", apperr.ErrMissingToken
  }

  //1) Well-formedness first: the laudo body is the client's analysis text.
  content = normalization.ParseInputString(content)
  if content == "" {
    return "", apperr.Validation("Conteúdo do relatório não informado")
  }

  users, err := rs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    rs.log.Warn("Failed to load user for report, Cannot proceed. Returning error.", "error", err)
    return "", fmt.Errorf("failed to load user: %w", err)
  }
  if len(users) == 0 {
    return "", apperr.ErrNotFound
  }
  user := users[0]
  if !user.IsPremium {
    return "", apperr.ErrPremiumRequired
  }

  //2) Recent exchanges supplement the submitted laudo. Fetching them is
  //   best effort: a miss degrades the report, it does not fail it.
  msgs, err := rs.chatRepo.GetRecentByUserID(ctx, nil, user.ID, reportSourceWindow)
  if err != nil {
    rs.log.Warn("Failed to fetch recent exchanges for report, continuing without them", "error", err)
    msgs = nil
  }
  for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
    msgs[i], msgs[j] = msgs[j], msgs[i]
  }

  pdfBytes, err := rs.renderPDF(user, content, msgs)
  if err != nil {
    rs.log.Error("Failed to render report PDF", "userID", user.ID, "error", err)
    return "", fmt.Errorf("failed to render report: %w", err)
  }

  objectKey := fmt.Sprintf("reports/%s/%s.pdf", user.ID, uuid.New())
  url, err := rs.bucket.UploadObject(ctx, objectKey, "application/pdf", pdfBytes)
  if err != nil {
    return "", fmt.Errorf("failed to publish report: %w", err)
  }
  rs.log.Info("Report generated", "userID", user.ID, "objectKey", objectKey)
  return url, nil
}

func (rs *reportService) renderPDF(user *types.User, content string, msgs []*types.ChatMessage) ([]byte, error) {
  pdf := gofpdf.New("P", "mm", "A4", "")
  translate := pdf.UnicodeTranslatorFromDescriptor("")

  pdf.SetHeaderFunc(func() {
    pdf.SetFont("Arial", "B", 15)
    pdf.SetTextColor(59, 130, 246)
    pdf.CellFormat(0, 10, translate("AutoAssist IA - Relatório Técnico"), "", 1, "C", false, 0, "")
    pdf.Ln(5)
  })
  pdf.SetFooterFunc(func() {
    pdf.SetY(-15)
    pdf.SetFont("Arial", "I", 8)
    pdf.SetTextColor(128, 128, 128)
    pdf.CellFormat(0, 10, translate(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
  })
  pdf.AddPage()

  pdf.SetFont("Arial", "B", 12)
  pdf.SetTextColor(0, 0, 0)
  pdf.CellFormat(0, 10, translate("Dados do Solicitante:"), "", 1, "", false, 0, "")
  pdf.SetFont("Arial", "", 11)
  pdf.CellFormat(0, 7, translate("Nome: "+user.Nome), "", 1, "", false, 0, "")
  pdf.CellFormat(0, 7, translate("Email: "+user.Email), "", 1, "", false, 0, "")
  pdf.CellFormat(0, 7, translate("Data: "+time.Now().Format("02/01/2006 15:04")), "", 1, "", false, 0, "")
  pdf.Ln(5)

  pdf.SetFont("Arial", "B", 12)
  pdf.CellFormat(0, 10, translate("Laudo Técnico (IA):"), "", 1, "", false, 0, "")
  pdf.Ln(2)
  pdf.SetFont("Arial", "", 11)
  pdf.MultiCell(0, 7, translate(content), "", "", false)

  if len(msgs) > 0 {
    pdf.Ln(5)
    pdf.SetFont("Arial", "B", 12)
    pdf.CellFormat(0, 10, translate("Consultas Recentes:"), "", 1, "", false, 0, "")
    pdf.Ln(2)
    for _, msg := range msgs {
      pdf.SetFont("Arial", "B", 11)
      pdf.MultiCell(0, 7, translate("Consulta: "+msg.MensagemUsuario), "", "", false)
      pdf.SetFont("Arial", "", 11)
      pdf.MultiCell(0, 7, translate(msg.RespostaIA), "", "", false)
      pdf.Ln(3)
    }
  }

  pdf.Ln(10)
  pdf.SetFont("Arial", "I", 9)
  pdf.SetTextColor(200, 50, 50)
  pdf.MultiCell(0, 5, translate("AVISO: Este relatório é gerado por Inteligência Artificial e serve apenas como estimativa. Não substitui uma inspeção mecânica presencial."), "", "", false)

  var buf bytes.Buffer
  if err := pdf.Output(&buf); err != nil {
    return nil, err
  }
  return buf.Bytes(), nil
}
