package db

import (
  "fmt"
  "time"

  "gorm.io/driver/mysql"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/autoassist/autoassist-backend/internal/logger"
  "github.com/autoassist/autoassist-backend/internal/types"
  "github.com/autoassist/autoassist-backend/internal/utils"
)

// DatabaseService owns the gorm handle. The schema is one additive set of
// tables shared by both supported drivers; DB_DRIVER selects postgres
// (default) or mysql.
type DatabaseService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
  serviceLog := log.With("service", "DatabaseService")

  //1) Get and Set Environment Variables
  serviceLog.Info("Attempting to load environment variables for the database now...")
  driver := utils.GetEnv("DB_DRIVER", "postgres", log)
  host := utils.GetEnv("DB_HOST", "localhost", log)
  user := utils.GetEnv("DB_USER", "autoassist", log)
  password := utils.GetEnv("DB_PASSWORD", "", log)
  name := utils.GetEnv("DB_NAME", "autoassist", log)
  maxOpenConns := utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", 5, log)

  //2) Construct DSN and open per driver
  var dialector gorm.Dialector
  switch driver {
  case "postgres":
    port := utils.GetEnv("DB_PORT", "5432", log)
    dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
    dialector = postgres.Open(dsn)
  case "mysql":
    port := utils.GetEnv("DB_PORT", "3306", log)
    dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, port, name)
    dialector = mysql.Open(dsn)
  default:
    return nil, fmt.Errorf("unsupported DB_DRIVER: '%s' (want 'postgres' or 'mysql')", driver)
  }

  //3) Attempt DB Connection
  serviceLog.Info("Attempting to connect to the database now...", "driver", driver)
  gormDB, err := gorm.Open(dialector, &gorm.Config{})
  if err != nil {
    serviceLog.Error("Failed to connect to the database", "driver", driver, "error", err)
    return nil, fmt.Errorf("failed to connect to the database: %w", err)
  }

  //4) Bound the connection pool. One connection is held per in-flight
  //   handler, so this also caps handler concurrency against the store.
  sqlDB, err := gormDB.DB()
  if err != nil {
    return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
  }
  sqlDB.SetMaxOpenConns(maxOpenConns)
  sqlDB.SetMaxIdleConns(maxOpenConns)
  sqlDB.SetConnMaxLifetime(30 * time.Minute)
  serviceLog.Info("Database connection established", "driver", driver, "maxOpenConns", maxOpenConns)

  return &DatabaseService{db: gormDB, log: serviceLog}, nil
}

// AutoMigrateAll migrates every model. Cascade rules live in the gorm
// constraint tags on the types, so the same migration path serves both
// drivers.
func (s *DatabaseService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.ChatMessage{},
    &types.UserToken{},
  )
  if err != nil {
    s.log.Error("AutoMigrateAll failed", "error", err)
    return err
  }
  s.log.Info("AutoMigrateAll completed successfully")
  return nil
}

func (s *DatabaseService) DB() *gorm.DB {
  return s.db
}

func (s *DatabaseService) Close() error {
  sqlDB, err := s.db.DB()
  if err != nil {
    return err
  }
  return sqlDB.Close()
}
