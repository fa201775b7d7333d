package services

import (
  "context"
  "encoding/base64"
  "encoding/json"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"

  "github.com/autoassist/autoassist-backend/internal/logger"
)

func TestVisionTwoStagePipeline(t *testing.T) {
  image := []byte("fake-image-bytes")
  var requests []ollamaGenerateRequest

  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/api/generate" {
      t.Errorf("unexpected path %q", r.URL.Path)
      http.NotFound(w, r)
      return
    }
    var req ollamaGenerateRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
      t.Errorf("decode request: %v", err)
    }
    requests = append(requests, req)

    reply := "FACTS: ferrugem no para-lama"
    if len(requests) == 2 {
      reply = "NOG: cuidado com essa ferrugem"
    }
    json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: reply, Done: true})
  }))
  defer srv.Close()

  t.Setenv("OLLAMA_HOST", srv.URL)
  t.Setenv("OLLAMA_VISION_MODEL", "moondream")
  t.Setenv("OLLAMA_TEXT_MODEL", "qwen2:0.5b")
  vs := NewVisionService(logger.NewNop())

  reply, err := vs.Analyze(context.Background(), image, "vale a pena?")
  if err != nil {
    t.Fatalf("Analyze: %v", err)
  }
  if reply != "NOG: cuidado com essa ferrugem" {
    t.Fatalf("final reply = %q", reply)
  }
  if len(requests) != 2 {
    t.Fatalf("expected 2 upstream calls, got %d", len(requests))
  }

  // Stage one carries the image to the vision model.
  stage1 := requests[0]
  if stage1.Model != "moondream" {
    t.Fatalf("stage 1 model = %q", stage1.Model)
  }
  if len(stage1.Images) != 1 || stage1.Images[0] != base64.StdEncoding.EncodeToString(image) {
    t.Fatal("stage 1 must carry the encoded image")
  }

  // Stage two is text-only: the facts and the question travel in the
  // prompt, not in server-side memory.
  stage2 := requests[1]
  if stage2.Model != "qwen2:0.5b" {
    t.Fatalf("stage 2 model = %q", stage2.Model)
  }
  if len(stage2.Images) != 0 {
    t.Fatal("stage 2 must not resend the image")
  }
  if !strings.Contains(stage2.Prompt, "FACTS: ferrugem no para-lama") {
    t.Fatal("stage 2 prompt must embed the stage 1 facts")
  }
  if !strings.Contains(stage2.Prompt, "vale a pena?") {
    t.Fatal("stage 2 prompt must embed the client question")
  }
}

func TestVisionDefaultQuestion(t *testing.T) {
  var prompts []string
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    var req ollamaGenerateRequest
    _ = json.NewDecoder(r.Body).Decode(&req)
    prompts = append(prompts, req.Prompt)
    json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "ok", Done: true})
  }))
  defer srv.Close()

  t.Setenv("OLLAMA_HOST", srv.URL)
  vs := NewVisionService(logger.NewNop())
  if _, err := vs.Analyze(context.Background(), []byte("img"), ""); err != nil {
    t.Fatalf("Analyze: %v", err)
  }
  if len(prompts) != 2 || !strings.Contains(prompts[1], "O que você vê de relevante neste carro?") {
    t.Fatal("empty question must fall back to the default prompt")
  }
}

func TestVisionUpstreamError(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusInternalServerError)
    json.NewEncoder(w).Encode(ollamaErrorResponse{Error: "model not loaded"})
  }))
  defer srv.Close()

  t.Setenv("OLLAMA_HOST", srv.URL)
  vs := NewVisionService(logger.NewNop())
  _, err := vs.Analyze(context.Background(), []byte("img"), "")
  if err == nil || !strings.Contains(err.Error(), "model not loaded") {
    t.Fatalf("err = %v, want upstream error text", err)
  }
}
