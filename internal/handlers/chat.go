package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) Chat(c *gin.Context) {
  var req struct {
    Message   string `json:"message"`
    Image     string `json:"image"`
    Categoria string `json:"categoria"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  result, err := ch.chatService.Send(c.Request.Context(), req.Message, req.Image, req.Categoria)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success":  true,
    "response": result.Response,
    "text":     result.Response,
    "tipo":     result.Tipo,
  })
}

func (ch *ChatHandler) History(c *gin.Context) {
  limit := 0
  if raw := c.Query("limit"); raw != "" {
    parsed, err := strconv.Atoi(raw)
    if err != nil {
      respondError(c, apperr.Validation("Parâmetro limit inválido"))
      return
    }
    limit = parsed
  }
  msgs, err := ch.chatService.History(c.Request.Context(), limit)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"chats": msgs})
}

// AnalyzeImage is the legacy dedicated endpoint; /api/chat with an image
// covers the same flow. Older clients send the question as "question",
// newer ones as "pergunta" — both are accepted.
func (ch *ChatHandler) AnalyzeImage(c *gin.Context) {
  var req struct {
    Image    string `json:"image"`
    Question string `json:"question"`
    Pergunta string `json:"pergunta"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Corpo da requisição inválido"))
    return
  }
  question := req.Question
  if question == "" {
    question = req.Pergunta
  }
  analysis, err := ch.chatService.AnalyzeImage(c.Request.Context(), req.Image, question)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}
