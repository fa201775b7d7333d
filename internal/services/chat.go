package services

import (
  "context"
  "encoding/base64"
  "errors"
  "fmt"
  "strings"
  "time"
  "unicode/utf8"

  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/normalization"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/types"
)

const (
  maxMessageRunes   = 2000
  maxImageBytes     = 20 * 1024 * 1024
  maxHistoryLimit   = 100
  defaultHistory    = 20
  contextWindowSize = 10

  imagePlaceholder  = "[Imagem enviada]"
  analysisPlaceholder = "[Análise de imagem]"
)

// TextGenerator is the text-model collaborator. History is the recent
// conversation window, oldest first.
type TextGenerator interface {
  Generate(ctx context.Context, message string, history []*types.ChatMessage, categoria string) (string, error)
}

// ImageAnalyzer is the vision collaborator. It receives decoded image bytes
// and the user's optional question.
type ImageAnalyzer interface {
  Analyze(ctx context.Context, image []byte, question string) (string, error)
}

type ChatResult struct {
  Response    string
  Tipo        string
}

type ChatService interface {
  Send(ctx context.Context, message, imageB64, categoria string) (*ChatResult, error)
  History(ctx context.Context, limit int) ([]*types.ChatMessage, error)
  AnalyzeImage(ctx context.Context, imageB64, question string) (string, error)
}

type chatService struct {
  log           *logger.Logger
  userRepo      repos.UserRepo
  chatRepo      repos.ChatMessageRepo
  entitlement   EntitlementService
  generator     TextGenerator
  analyzer      ImageAnalyzer
  modelTimeout  time.Duration
}

func NewChatService(
  log *logger.Logger,
  userRepo repos.UserRepo,
  chatRepo repos.ChatMessageRepo,
  entitlement EntitlementService,
  generator TextGenerator,
  analyzer ImageAnalyzer,
  modelTimeout time.Duration,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{
    log:          serviceLog,
    userRepo:     userRepo,
    chatRepo:     chatRepo,
    entitlement:  entitlement,
    generator:    generator,
    analyzer:     analyzer,
    modelTimeout: modelTimeout,
  }
}

func (cs *chatService) Send(ctx context.Context, message, imageB64, categoria string) (*ChatResult, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.ErrMissingToken
  }

  //1) Well-formedness first: reject before touching storage or the model.
  message = normalization.ParseInputString(message)
  categoria = normalization.ParseCategory(categoria)
  if message == "" && imageB64 == "" {
    return nil, apperr.Validation("Envie uma mensagem ou uma imagem")
  }
  if utf8.RuneCountInString(message) > maxMessageRunes {
    return nil, apperr.Validation("Mensagem não pode exceder 2000 caracteres")
  }
  var imageBytes []byte
  if imageB64 != "" {
    raw, dErr := DecodeImagePayload(imageB64)
    if dErr != nil {
      return nil, dErr
    }
    imageBytes = raw
  }

  //2) Entitlement gate, strictly before any persistence or collaborator
  //   call. An expired trial must be observable as "the model was never
  //   invoked".
  user, uErr := cs.loadUser(ctx, rd.UserID)
  if uErr != nil {
    return nil, uErr
  }
  if cs.entitlement.IsTrialExpired(user, time.Now()) {
    cs.log.Info("Chat rejected: trial expired", "userID", user.ID)
    return nil, apperr.ErrTrialExpired
  }

  //3) Dispatch to the right collaborator under an explicit timeout.
  modelCtx, cancel := context.WithTimeout(ctx, cs.modelTimeout)
  defer cancel()

  var reply string
  var tipo string
  var mErr error
  if imageBytes != nil {
    cs.log.Info("Dispatching image analysis", "userID", user.ID, "imageBytes", len(imageBytes))
    reply, mErr = cs.analyzer.Analyze(modelCtx, imageBytes, message)
    tipo = "analise_imagem"
  } else {
    history := cs.recentContext(ctx, user.ID)
    cs.log.Info("Dispatching text generation", "userID", user.ID, "categoria", categoria, "contextLen", len(history))
    reply, mErr = cs.generator.Generate(modelCtx, message, history, categoria)
    tipo = "chat"
  }
  if mErr != nil {
    return nil, cs.translateUpstream(mErr)
  }

  //4) Persist the exchange. A failed history write must not cost the user
  //   the answer they already paid a model call for.
  userText := message
  if userText == "" {
    userText = imagePlaceholder
  }
  cs.appendHistory(ctx, user.ID, categoria, userText, reply)

  return &ChatResult{Response: reply, Tipo: tipo}, nil
}

func (cs *chatService) History(ctx context.Context, limit int) ([]*types.ChatMessage, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.ErrMissingToken
  }
  if limit <= 0 {
    limit = defaultHistory
  }
  if limit > maxHistoryLimit {
    limit = maxHistoryLimit
  }
  msgs, err := cs.chatRepo.GetRecentByUserID(ctx, nil, rd.UserID, limit)
  if err != nil {
    cs.log.Warn("Failed to fetch chat history, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch chat history: %w", err)
  }
  // Storage hands back newest-first; callers want the window in
  // chronological order, oldest of the window first.
  for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
    msgs[i], msgs[j] = msgs[j], msgs[i]
  }
  return msgs, nil
}

// AnalyzeImage backs the legacy /api/analyze_image endpoint: image
// required, saved under the fixed "analise" category.
func (cs *chatService) AnalyzeImage(ctx context.Context, imageB64, question string) (string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return "", apperr.ErrMissingToken
  }
  question = normalization.ParseInputString(question)
  if strings.TrimSpace(imageB64) == "" {
    return "", apperr.Validation("Imagem é obrigatória")
  }
  raw, dErr := DecodeImagePayload(imageB64)
  if dErr != nil {
    return "", dErr
  }
  if _, uErr := cs.loadUser(ctx, rd.UserID); uErr != nil {
    return "", uErr
  }

  modelCtx, cancel := context.WithTimeout(ctx, cs.modelTimeout)
  defer cancel()
  reply, mErr := cs.analyzer.Analyze(modelCtx, raw, question)
  if mErr != nil {
    return "", cs.translateUpstream(mErr)
  }

  userText := question
  if userText == "" {
    userText = analysisPlaceholder
  }
  cs.appendHistory(ctx, rd.UserID, "analise", userText, reply)
  return reply, nil
}

func (cs *chatService) loadUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
  users, err := cs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil {
    cs.log.Warn("Failed to load user for chat, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to load user: %w", err)
  }
  if len(users) == 0 {
    return nil, apperr.ErrNotFound
  }
  return users[0], nil
}

// recentContext is best effort: a context fetch failure degrades the answer
// quality, it does not fail the request.
func (cs *chatService) recentContext(ctx context.Context, userID uuid.UUID) []*types.ChatMessage {
  msgs, err := cs.chatRepo.GetRecentByUserID(ctx, nil, userID, contextWindowSize)
  if err != nil {
    cs.log.Warn("Failed to fetch conversation context, continuing without it", "error", err)
    return nil
  }
  for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
    msgs[i], msgs[j] = msgs[j], msgs[i]
  }
  return msgs
}

func (cs *chatService) appendHistory(ctx context.Context, userID uuid.UUID, categoria, userText, reply string) {
  msg := &types.ChatMessage{
    UserID:          userID,
    Categoria:       categoria,
    MensagemUsuario: userText,
    RespostaIA:      reply,
  }
  if _, err := cs.chatRepo.CreateMessages(ctx, nil, []*types.ChatMessage{msg}); err != nil {
    cs.log.Error("Failed to persist chat exchange, reply still returned", "userID", userID, "error", err)
  }
}

// translateUpstream maps provider failures onto the small user-facing set.
// Provider text goes to the log, never to the client.
func (cs *chatService) translateUpstream(err error) error {
  cs.log.Warn("Upstream model call failed", "error", err)
  if errors.Is(err, context.DeadlineExceeded) {
    return apperr.ErrUpstreamTimeout
  }
  msg := strings.ToLower(err.Error())
  if strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") {
    return apperr.ErrUpstreamQuota
  }
  return apperr.ErrUpstream
}

// DecodeImagePayload strips an optional data-URI prefix (everything up to
// and including the first comma) and decodes the remaining base64.
func DecodeImagePayload(imageB64 string) ([]byte, error) {
  payload := strings.TrimSpace(imageB64)
  if idx := strings.Index(payload, ","); idx >= 0 {
    payload = payload[idx+1:]
  }
  raw, err := base64.StdEncoding.DecodeString(payload)
  if err != nil {
    return nil, apperr.Validation("Imagem em formato base64 inválido")
  }
  if len(raw) > maxImageBytes {
    return nil, apperr.Validation("Imagem excede 20MB")
  }
  if len(raw) == 0 {
    return nil, apperr.Validation("Imagem vazia")
  }
  return raw, nil
}
