package middleware

import (
  "context"
  "encoding/json"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/services"
  "github.com/autoassist/autoassist-backend/internal/types"
)

type fakeAuthService struct {
  userID uuid.UUID
  err    error
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, user *types.User) error { return nil }
func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*types.User, *services.RefreshResult, error) {
  return nil, nil, nil
}
func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error) {
  return nil, nil
}
func (f *fakeAuthService) Logout(ctx context.Context) error { return nil }
func (f *fakeAuthService) GetAccessTTL() time.Duration      { return time.Hour }

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if f.err != nil {
    return ctx, f.err
  }
  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      f.userID,
  }), nil
}

func newAuthRouter(svc services.AuthService) *gin.Engine {
  gin.SetMode(gin.TestMode)
  am := NewAuthMiddleware(logger.NewNop(), svc)
  router := gin.New()
  router.GET("/api/user", am.RequireAuth(), func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID})
  })
  return router
}

func doGet(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
  w := httptest.NewRecorder()
  req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
  if authHeader != "" {
    req.Header.Set("Authorization", authHeader)
  }
  router.ServeHTTP(w, req)
  return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
  t.Helper()
  var body struct {
    Code string `json:"code"`
  }
  if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
    t.Fatalf("decode body %q: %v", w.Body.String(), err)
  }
  return body.Code
}

func TestRequireAuthAcceptsBearer(t *testing.T) {
  userID := uuid.New()
  router := newAuthRouter(&fakeAuthService{userID: userID})
  w := doGet(router, "Bearer valid-token")
  if w.Code != http.StatusOK {
    t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
  }
}

func TestRequireAuthMissingHeader(t *testing.T) {
  router := newAuthRouter(&fakeAuthService{userID: uuid.New()})
  w := doGet(router, "")
  if w.Code != http.StatusUnauthorized {
    t.Fatalf("status = %d, want 401", w.Code)
  }
  if code := decodeErrorCode(t, w); code != "missing_token" {
    t.Fatalf("code = %q, want missing_token", code)
  }
}

func TestRequireAuthNonBearerScheme(t *testing.T) {
  router := newAuthRouter(&fakeAuthService{userID: uuid.New()})
  w := doGet(router, "Basic dXNlcjpwYXNz")
  if w.Code != http.StatusUnauthorized {
    t.Fatalf("status = %d, want 401", w.Code)
  }
  if code := decodeErrorCode(t, w); code != "missing_token" {
    t.Fatalf("code = %q, want missing_token", code)
  }
}

func TestRequireAuthPropagatesTokenErrors(t *testing.T) {
  cases := []struct {
    name     string
    err      error
    wantCode string
  }{
    {"expired", apperr.ErrExpiredToken, "token_expired"},
    {"invalid", apperr.ErrInvalidToken, "invalid_token"},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      router := newAuthRouter(&fakeAuthService{err: tc.err})
      w := doGet(router, "Bearer some-token")
      if w.Code != http.StatusUnauthorized {
        t.Fatalf("status = %d, want 401", w.Code)
      }
      if code := decodeErrorCode(t, w); code != tc.wantCode {
        t.Fatalf("code = %q, want %q", code, tc.wantCode)
      }
    })
  }
}

func TestRequireAuthRejectsNilUserID(t *testing.T) {
  router := newAuthRouter(&fakeAuthService{userID: uuid.Nil})
  w := doGet(router, "Bearer some-token")
  if w.Code != http.StatusUnauthorized {
    t.Fatalf("status = %d, want 401", w.Code)
  }
  if code := decodeErrorCode(t, w); code != "invalid_token" {
    t.Fatalf("code = %q, want invalid_token", code)
  }
}
