package services

import (
  "bytes"
  "context"
  "encoding/base64"
  "encoding/json"
  "fmt"
  "net/http"
  "strings"

  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/utils"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

const visionSystemPrompt = `Você é um especialista em inspeção veicular técnica ("Raio-X Mecânico").
Analise a imagem buscando falhas ocultas e detalhes de mercado.
Identifique:
1. Veículo: Marca, modelo, ano/geração estimada.
2. Lataria/Estrutura: Desalinhamentos de peças (indicando batidas), ferrugem.
3. Mecânica Visível: Vazamentos, fumaça, estado dos pneus.
4. Acabamento: Faróis, vidros, interior.
5. Veredito: Bom estado, Cuidado (riscos médios) ou Bomba (riscos altos).
Seja extremamente crítico e técnico.`

const visionExtractionPrompt = "Analyze this car for mechanical issues, rust, panel gaps, and estimated value condition."

// VisionService runs the image pipeline in two explicit stages against a
// self-hosted Ollama server: the vision model extracts raw facts from the
// picture, then the text model answers as the NOG consultant with those
// facts passed in the prompt. Each stage is a standalone call; no
// conversation state lives on the server between them.
type VisionService struct {
  log         *logger.Logger
  baseURL     string
  visionModel string
  textModel   string
  httpClient  *http.Client
}

var _ ImageAnalyzer = (*VisionService)(nil)

func NewVisionService(log *logger.Logger) *VisionService {
  serviceLog := log.With("service", "VisionService")
  baseURL := strings.TrimRight(utils.GetEnv("OLLAMA_HOST", defaultOllamaBaseURL, serviceLog), "/")
  return &VisionService{
    log:         serviceLog,
    baseURL:     baseURL,
    visionModel: utils.GetEnv("OLLAMA_VISION_MODEL", "moondream", serviceLog),
    textModel:   utils.GetEnv("OLLAMA_TEXT_MODEL", "qwen2:0.5b", serviceLog),
    httpClient:  &http.Client{},
  }
}

func (vs *VisionService) Analyze(ctx context.Context, image []byte, question string) (string, error) {
  //1) Stage one: the vision model sees the image and reports raw facts.
  vs.log.Info("Vision stage 1: extracting facts from image", "model", vs.visionModel, "imageBytes", len(image))
  facts, err := vs.generate(ctx, ollamaGenerateRequest{
    Model:  vs.visionModel,
    System: visionSystemPrompt,
    Prompt: visionExtractionPrompt,
    Images: []string{base64.StdEncoding.EncodeToString(image)},
    Stream: false,
  })
  if err != nil {
    return "", fmt.Errorf("vision extraction failed: %w", err)
  }

  //2) Stage two: the text model interprets the facts as the consultant.
  //   The facts travel inside the prompt so the call needs no memory of
  //   stage one.
  if question == "" {
    question = "O que você vê de relevante neste carro?"
  }
  vs.log.Info("Vision stage 2: interpreting facts", "model", vs.textModel)
  reply, err := vs.generate(ctx, ollamaGenerateRequest{
    Model:  vs.textModel,
    Prompt: vs.interpretationPrompt(facts, question),
    Stream: false,
  })
  if err != nil {
    return "", fmt.Errorf("vision interpretation failed: %w", err)
  }
  return reply, nil
}

func (vs *VisionService) interpretationPrompt(facts, question string) string {
  return fmt.Sprintf(`Você é o NOG, consultor automotivo expert.
Um inspetor visual examinou a foto do veículo e reportou o seguinte:

%s

Pergunta do Cliente: %s

Sua Resposta deve conter:
1. Resumo do Estado (Lataria, Pneus, Detalhes).
2. Alerta Mecânico (aponte possíveis problemas invisíveis comuns a este modelo).
3. Estimativa de Valor (Compare com a média de mercado/FIPE).

Seja direto, proteja o comprador de ciladas.`, facts, question)
}

func (vs *VisionService) generate(ctx context.Context, reqBody ollamaGenerateRequest) (string, error) {
  body, err := json.Marshal(reqBody)
  if err != nil {
    return "", err
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, vs.baseURL+"/api/generate", bytes.NewReader(body))
  if err != nil {
    return "", err
  }
  req.Header.Set("Content-Type", "application/json")
  resp, err := vs.httpClient.Do(req)
  if err != nil {
    return "", err
  }
  defer resp.Body.Close()
  if resp.StatusCode >= 400 {
    var errResp ollamaErrorResponse
    _ = json.NewDecoder(resp.Body).Decode(&errResp)
    if errResp.Error != "" {
      return "", fmt.Errorf("ollama api error (%d): %s", resp.StatusCode, errResp.Error)
    }
    return "", fmt.Errorf("ollama api error: %s", resp.Status)
  }
  var out ollamaGenerateResponse
  if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
    return "", err
  }
  if strings.TrimSpace(out.Response) == "" {
    return "", fmt.Errorf("empty response from ollama model %s", reqBody.Model)
  }
  return out.Response, nil
}

type ollamaGenerateRequest struct {
  Model  string   `json:"model"`
  System string   `json:"system,omitempty"`
  Prompt string   `json:"prompt"`
  Images []string `json:"images,omitempty"`
  Stream bool     `json:"stream"`
}

type ollamaGenerateResponse struct {
  Response string `json:"response"`
  Done     bool   `json:"done"`
}

type ollamaErrorResponse struct {
  Error string `json:"error"`
}
