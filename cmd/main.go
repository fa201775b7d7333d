package main

import (
  "context"
  "fmt"
  "net/http"
  "os"
  "os/signal"
  "strings"
  "syscall"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/autoassist/autoassist-backend/internal/db"
  "github.com/autoassist/autoassist-backend/internal/handlers"
  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/middleware"
  "github.com/autoassist/autoassist-backend/internal/repos"
  "github.com/autoassist/autoassist-backend/internal/server"
  "github.com/autoassist/autoassist-backend/internal/services"
  "github.com/autoassist/autoassist-backend/internal/utils"
)

func main() {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 2592000, log)
  trialDays := utils.GetEnvAsInt("TRIAL_DAYS", 30, log)
  modelTimeout := utils.GetEnvAsInt("MODEL_TIMEOUT_SECONDS", 60, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  corsOrigins := utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log)

  // Database Setup
  log.Info("Setting Up Database from Main now...")
  databaseService, err := db.NewDatabaseService(log)
  if err != nil {
    log.Error("DB init failed, Cannot proceed.", "error", err)
    os.Exit(1)
  }
  if err = databaseService.AutoMigrateAll(); err != nil {
    log.Warn("Database auto migration failed", "error", err)
  }
  theDB := databaseService.DB()
  log.Info("Database Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(theDB, log)
  userTokenRepo := repos.NewUserTokenRepo(theDB, log)
  chatMessageRepo := repos.NewChatMessageRepo(theDB, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Redis Setup (rate limiting only, so a missing server degrades to no
  // throttling instead of killing the process)
  log.Info("Setting Up Redis from Main now...")
  redisClient := redis.NewClient(&redis.Options{Addr: redisAddress, Password: redisPassword})
  if pErr := redisClient.Ping(context.Background()).Err(); pErr != nil {
    log.Warn("Redis unreachable, rate limiting disabled", "error", pErr)
    redisClient = nil
  } else {
    log.Info("Redis Set Up From Main Successful :)")
  }

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService", "error", err)
  }
  bucketService, err := services.NewBucketService(context.Background(), log)
  if err != nil {
    log.Warn("Could not init BucketService", "error", err)
  }
  geminiService, err := services.NewGeminiService(log)
  if err != nil {
    log.Error("Fatal error: Cannot init GeminiService", "error", err)
    os.Exit(1)
  }
  visionService := services.NewVisionService(log)
  entitlementService := services.NewEntitlementService(log, userRepo, trialDays)
  authService := services.NewAuthService(log, userRepo, userTokenRepo, emailService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  meService := services.NewMeService(log, userRepo)
  chatService := services.NewChatService(log, userRepo, chatMessageRepo, entitlementService, geminiService, visionService, time.Duration(modelTimeout)*time.Second)
  paymentService := services.NewPaymentService(log, userRepo, entitlementService, emailService)
  var reportService services.ReportService
  if bucketService != nil {
    reportService = services.NewReportService(log, userRepo, chatMessageRepo, bucketService)
  }
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService, entitlementService)
  meHandler := handlers.NewMeHandler(meService, entitlementService)
  chatHandler := handlers.NewChatHandler(chatService)
  paymentHandler := handlers.NewPaymentHandler(paymentService)
  reportHandler := handlers.NewReportHandler(reportService)
  log.Info("Handlers Set Up From Main Successful :)")

  // Middleware Setup
  log.Info("Setting Up Middleware from Main now...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, redisClient)
  log.Info("Middleware Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:    authHandler,
    MeHandler:      meHandler,
    ChatHandler:    chatHandler,
    PaymentHandler: paymentHandler,
    ReportHandler:  reportHandler,
    AuthMiddleware: authMiddleware,
    RateLimit:      rateLimitMiddleware,
    CORSOrigins:    splitOrigins(corsOrigins),
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  srv := &http.Server{
    Addr:    ":" + port,
    Handler: router,
  }

  ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer stop()

  go func() {
    log.Info("Server listening", "port", port)
    if sErr := srv.ListenAndServe(); sErr != nil && sErr != http.ErrServerClosed {
      log.Error("Server failed", "error", sErr)
      stop()
    }
  }()

  <-ctx.Done()
  log.Info("Shutdown signal received, draining connections...")
  shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
  defer cancel()
  if sErr := srv.Shutdown(shutdownCtx); sErr != nil {
    log.Warn("Server shutdown did not finish cleanly", "error", sErr)
  }
  if redisClient != nil {
    if cErr := redisClient.Close(); cErr != nil {
      log.Warn("Failed to close redis client", "error", cErr)
    }
  }
  if cErr := databaseService.Close(); cErr != nil {
    log.Warn("Failed to close database", "error", cErr)
  }
  log.Info("Shutdown complete")
}

func splitOrigins(raw string) []string {
  parts := strings.Split(raw, ",")
  origins := make([]string, 0, len(parts))
  for _, p := range parts {
    if trimmed := strings.TrimSpace(p); trimmed != "" {
      origins = append(origins, trimmed)
    }
  }
  return origins
}
