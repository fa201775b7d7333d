package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/normalization"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/requestdata"
  "github.com/autoassist/autoassist-backend/internal/types"
  "github.com/autoassist/autoassist-backend/internal/utils"
)

const (
  tokenTypeAccess  = "access"
  tokenTypeRefresh = "refresh"
)

type JWTClaims struct {
  jwt.RegisteredClaims
  Email       string      `json:"email,omitempty"`
  TokenType   string      `json:"token_type,omitempty"`
}

// RefreshResult carries the minted tokens. RefreshToken is empty when the
// user is not premium: free accounts only get their access token renewed,
// premium accounts get a sliding refresh window.
type RefreshResult struct {
  AccessToken   string
  RefreshToken  string
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  Login(ctx context.Context, email, password string) (*types.User, *RefreshResult, error)
  Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
  Logout(ctx context.Context) error

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetAccessTTL() time.Duration
}

type authService struct {
  log             *logger.Logger
  userRepo        repos.UserRepo
  userTokenRepo   repos.UserTokenRepo
  emailService    EmailService
  jwtSecretKey    string
  accessTTL       time.Duration
  refreshTTL      time.Duration
}

func NewAuthService(
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  emailService EmailService,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    emailService:  emailService,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  //1) Normalize User Fields
  user.Nome = normalization.ParseInputString(user.Nome)
  user.Email = normalization.ParseEmail(user.Email)
  user.Password = normalization.ParseInputString(user.Password)

  //2) Checks on user fields
  if vErr := utils.ValidateRegistration(user); vErr != nil {
    return vErr
  }

  //3) Duplicate email check. The unique index is the real guarantee; this
  //   pre-check turns the common case into a clean 409.
  exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
  if err != nil {
    as.log.Warn("Failed to check if user email exists, Cannot proceed. Returning error.", "error", err)
    return fmt.Errorf("failed checking email existence: %w", err)
  }
  if exists {
    return apperr.ErrDuplicateEmail
  }

  //4) Hash Password
  hashed, hErr := utils.HashPassword(user.Password)
  if hErr != nil {
    as.log.Warn("Failure to hash password for user, Cannot proceed. Returning error.", "error", hErr)
    return fmt.Errorf("failed to hash password: %w", hErr)
  }
  user.Password = hashed

  //5) Create Final User
  created, cErr := as.userRepo.Create(ctx, nil, []*types.User{user})
  if cErr != nil {
    as.log.Warn("Failure from AuthService -> UserRepo to create final user", "error", cErr)
    return fmt.Errorf("failure to create user: %w", cErr)
  }
  if len(created) == 0 {
    return fmt.Errorf("failure to create user in DB")
  }
  as.log.Info("New user registered", "userID", created[0].ID, "email", created[0].Email)

  //6) Welcome email is best effort only.
  if as.emailService != nil {
    if eErr := as.emailService.SendEmail(ctx, user.Email, "Bem-vindo ao AutoAssist",
      "Seu cadastro foi realizado com sucesso. O NOG está pronto para ajudar.", ""); eErr != nil {
      as.log.Warn("Failed to send welcome email", "error", eErr)
    }
  }
  return nil
}

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (*types.User, *RefreshResult, error) {
  //1) Normalize Input
  email := normalization.ParseEmail(userEmail)
  password := normalization.ParseInputString(userPassword)

  //2) Input Validations
  if vErr := utils.ValidateLogin(email, password); vErr != nil {
    return nil, nil, vErr
  }

  //3) Find User By Email. Unknown email and wrong password collapse into
  //   the same error so the response carries no enumeration signal.
  users, uErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if uErr != nil {
    as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uErr)
    return nil, nil, fmt.Errorf("error retrieving user by email: %w", uErr)
  }
  if len(users) == 0 {
    as.log.Warn("Login failed: no user for email", "email", email)
    return nil, nil, apperr.ErrInvalidCredentials
  }
  user := users[0]
  if !utils.CheckPassword(user.Password, password) {
    as.log.Warn("Login failed: password mismatch", "userID", user.ID)
    return nil, nil, apperr.ErrInvalidCredentials
  }

  //4) Mint tokens and record the audit row
  accessToken, aErr := as.generateToken(user, tokenTypeAccess, as.accessTTL)
  if aErr != nil {
    return nil, nil, fmt.Errorf("generate access token: %w", aErr)
  }
  refreshToken, rErr := as.generateToken(user, tokenTypeRefresh, as.refreshTTL)
  if rErr != nil {
    return nil, nil, fmt.Errorf("generate refresh token: %w", rErr)
  }
  as.recordTokenAudit(ctx, user.ID, accessToken, refreshToken)

  as.log.Info("Login succeeded", "userID", user.ID)
  return user, &RefreshResult{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
  if refreshToken == "" {
    return nil, apperr.ErrMissingToken
  }

  //1) The signed token is the source of truth; the user_token table is
  //   only an audit trail.
  claims, err := as.parseToken(refreshToken)
  if err != nil {
    return nil, err
  }
  if claims.TokenType != tokenTypeRefresh {
    as.log.Warn("Refresh called with a non-refresh token", "tokenType", claims.TokenType)
    return nil, apperr.ErrInvalidToken
  }
  userID, pErr := uuid.Parse(claims.Subject)
  if pErr != nil {
    return nil, apperr.ErrInvalidToken
  }

  //2) Load the user to decide the sliding-expiration policy
  users, uErr := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if uErr != nil {
    as.log.Warn("Failed to load user for refresh, Cannot proceed. Returning error.", "error", uErr)
    return nil, fmt.Errorf("failed to load user for refresh: %w", uErr)
  }
  if len(users) == 0 {
    return nil, apperr.ErrInvalidToken
  }
  user := users[0]

  //3) Always renew the access token. Premium accounts also get a fresh
  //   refresh token, extending the session window; free accounts keep
  //   riding the original refresh token until it dies.
  accessToken, aErr := as.generateToken(user, tokenTypeAccess, as.accessTTL)
  if aErr != nil {
    return nil, fmt.Errorf("generate access token: %w", aErr)
  }
  result := &RefreshResult{AccessToken: accessToken}
  if user.IsPremium {
    newRefresh, rErr := as.generateToken(user, tokenTypeRefresh, as.refreshTTL)
    if rErr != nil {
      return nil, fmt.Errorf("generate refresh token: %w", rErr)
    }
    result.RefreshToken = newRefresh

    // Rotate the audit row for the replaced refresh token.
    if oldRows, fErr := as.userTokenRepo.GetByRefreshTokens(ctx, nil, []string{refreshToken}); fErr == nil && len(oldRows) > 0 {
      if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, nil, oldRows); dErr != nil {
        as.log.Warn("Failed to prune rotated refresh token audit row", "error", dErr)
      }
    }
    as.recordTokenAudit(ctx, user.ID, accessToken, newRefresh)
  }
  as.log.Info("Tokens refreshed", "userID", user.ID, "slidingRefresh", user.IsPremium)
  return result, nil
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.TokenString == "" {
    return apperr.ErrMissingToken
  }
  foundTokens, fErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{rd.TokenString})
  if fErr != nil {
    as.log.Warn("Error finding user token from token string", "error", fErr)
    return fmt.Errorf("error finding user token: %w", fErr)
  }
  if len(foundTokens) > 0 {
    if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, nil, foundTokens); dErr != nil {
      as.log.Warn("Error deleting user token", "error", dErr)
      return fmt.Errorf("error deleting user token: %w", dErr)
    }
  }
  as.log.Info("Logout succeeded", "userID", rd.UserID)
  return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, apperr.ErrMissingToken
  }
  claims, err := as.parseToken(tokenString)
  if err != nil {
    return ctx, err
  }
  if claims.TokenType != tokenTypeAccess {
    return ctx, apperr.ErrInvalidToken
  }
  userID, pErr := uuid.Parse(claims.Subject)
  if pErr != nil {
    return ctx, apperr.ErrInvalidToken
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Email:       claims.Email,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}

func (as *authService) generateToken(user *types.User, tokenType string, ttl time.Duration) (string, error) {
  now := time.Now()
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
      IssuedAt:  jwt.NewNumericDate(now),
      ID:        uuid.New().String(),
    },
    Email:     user.Email,
    TokenType: tokenType,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) parseToken(tokenString string) (*JWTClaims, error) {
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    if errors.Is(err, jwt.ErrTokenExpired) {
      return nil, apperr.ErrExpiredToken
    }
    as.log.Debug("Failed to parse token", "error", err)
    return nil, apperr.ErrInvalidToken
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return nil, apperr.ErrInvalidToken
  }
  return claims, nil
}

// recordTokenAudit writes the audit row and prunes stale ones. Failures are
// logged only: the signed tokens already left the building.
func (as *authService) recordTokenAudit(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string) {
  if dErr := as.userTokenRepo.FullDeleteExpired(ctx, nil, userID, time.Now()); dErr != nil {
    as.log.Warn("Failed to prune expired user tokens", "error", dErr)
  }
  row := &types.UserToken{
    UserID:       userID,
    AccessToken:  accessToken,
    RefreshToken: refreshToken,
    ExpiresAt:    time.Now().Add(as.refreshTTL),
  }
  if _, cErr := as.userTokenRepo.Create(ctx, nil, []*types.UserToken{row}); cErr != nil {
    as.log.Warn("Failed to record user token audit row", "error", cErr)
  }
}
