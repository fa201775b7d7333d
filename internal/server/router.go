package server

import (
  "time"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/handlers"
  "github.com/autoassist/autoassist-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler    *handlers.AuthHandler
  MeHandler      *handlers.MeHandler
  ChatHandler    *handlers.ChatHandler
  PaymentHandler *handlers.PaymentHandler
  ReportHandler  *handlers.ReportHandler
  AuthMiddleware *middleware.AuthMiddleware
  RateLimit      *middleware.RateLimitMiddleware
  CORSOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.CORSOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/cadastro", cfg.RateLimit.Limit("cadastro", 5, time.Minute), cfg.AuthHandler.Cadastro)
    api.POST("/login", cfg.RateLimit.Limit("login", 10, time.Minute), cfg.AuthHandler.Login)
    // The refresh token itself is the credential here.
    api.POST("/refresh", cfg.AuthHandler.Refresh)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/logout", cfg.AuthHandler.Logout)
  protected.GET("/verify-token", cfg.AuthHandler.VerifyToken)

  //User Profile
  protected.GET("/user", cfg.MeHandler.GetUser)
  protected.PUT("/user", cfg.MeHandler.UpdateUser)

  //Chat
  protected.POST("/chat", cfg.RateLimit.Limit("chat", 20, time.Minute), cfg.ChatHandler.Chat)
  protected.GET("/chat/history", cfg.ChatHandler.History)
  protected.POST("/analyze_image", cfg.RateLimit.Limit("analyze_image", 5, time.Minute), cfg.ChatHandler.AnalyzeImage)

  //Payment + Report
  protected.POST("/pay/mock", cfg.PaymentHandler.MockPay)
  protected.POST("/report", cfg.ReportHandler.CreateReport)

  return router
}
