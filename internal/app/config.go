package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Config struct {
	Port           string
	ServiceName    string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowOrigins   []string

	// ReconcileParallelism bounds concurrent reconciles when listing enrollments.
	ReconcileParallelism int
	MaxTxAttempts        int
	AchievementRules     []aggregates.AchievementRule
}

// LoadDotEnv reads .env when present. Real environment variables win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:                 envutil.String("PORT", "8080", log),
		ServiceName:          envutil.String("OTEL_SERVICE_NAME", "coursemarket-progress", log),
		Environment:          envutil.String("APP_ENV", "development", log),
		JWTSecretKey:         envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:       envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour, log),
		ReconcileParallelism: envutil.Int("RECONCILE_PARALLELISM", 4, log),
		MaxTxAttempts:        envutil.Int("AGGREGATE_MAX_TX_ATTEMPTS", 3, log),
	}
	if raw := envutil.String("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		cfg.AllowOrigins = strings.Split(raw, ",")
	}

	rules := aggregates.DefaultAchievementRules()
	if path := envutil.String("ACHIEVEMENT_RULES_PATH", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read achievement rules: %w", err)
		}
		rules, err = aggregates.ParseAchievementRules(raw)
		if err != nil {
			return cfg, fmt.Errorf("parse achievement rules %s: %w", path, err)
		}
		log.Info("Loaded achievement rules", "path", path, "count", len(rules))
	}
	cfg.AchievementRules = rules

	if cfg.JWTSecretKey == "defaultsecret" && cfg.Environment == "production" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	return cfg, nil
}
