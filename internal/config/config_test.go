package config

import (
	"testing"
	"time"
)

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "7001")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("DIAGNOSIS_SERVICE_MONGO_DB", "diagnosis_test")
	t.Setenv("MONGODB_POOL_SIZE", "25")
	t.Setenv("MONGODB_TIMEOUT", "3s")
	t.Setenv("RABBITMQ_URI", "amqp://guest:guest@mq:5672/")
	t.Setenv("DIAGNOSIS_MIN_QUESTIONS", "5")
	t.Setenv("DIAGNOSIS_TARGET_PRECISION", "0.2")

	cfg := Load()

	if cfg.Server.Port != "7001" {
		t.Errorf("Expected port 7001, got %s", cfg.Server.Port)
	}
	if len(cfg.Server.AllowOrigins) != 2 || cfg.Server.AllowOrigins[1] != "https://b.example" {
		t.Errorf("Expected two origins, got %v", cfg.Server.AllowOrigins)
	}
	if cfg.MongoDB.URI != "mongodb://db:27017" || cfg.MongoDB.Database != "diagnosis_test" {
		t.Errorf("Expected mongo overrides, got %+v", cfg.MongoDB)
	}
	if cfg.MongoDB.PoolSize != 25 || cfg.MongoDB.Timeout != 3*time.Second {
		t.Errorf("Expected pool 25 timeout 3s, got %+v", cfg.MongoDB)
	}
	if cfg.RabbitMQ.URI != "amqp://guest:guest@mq:5672/" {
		t.Errorf("Expected rabbit override, got %s", cfg.RabbitMQ.URI)
	}
	if cfg.Diagnosis.MinQuestions != 5 {
		t.Errorf("Expected min questions 5, got %d", cfg.Diagnosis.MinQuestions)
	}
	if cfg.Diagnosis.TargetPrecision != 0.2 {
		t.Errorf("Expected precision 0.2, got %f", cfg.Diagnosis.TargetPrecision)
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("DIAGNOSIS_MIN_QUESTIONS", "plenty")
	t.Setenv("DIAGNOSIS_TARGET_PRECISION", "tight")
	t.Setenv("MONGODB_TIMEOUT", "soon")
	t.Setenv("MONGODB_POOL_SIZE", "-3")

	cfg := Load()

	if cfg.Diagnosis.MinQuestions != 10 {
		t.Errorf("Expected default 10, got %d", cfg.Diagnosis.MinQuestions)
	}
	if cfg.Diagnosis.TargetPrecision != 0.3 {
		t.Errorf("Expected default 0.3, got %f", cfg.Diagnosis.TargetPrecision)
	}
	if cfg.MongoDB.Timeout != 10*time.Second {
		t.Errorf("Expected default 10s, got %s", cfg.MongoDB.Timeout)
	}
	if cfg.MongoDB.PoolSize != 100 {
		t.Errorf("Expected default pool 100, got %d", cfg.MongoDB.PoolSize)
	}
}

func TestAdaptiveConfigMapping(t *testing.T) {
	diag := DiagnosisConfig{
		MinQuestions:    8,
		MaxQuestions:    24,
		TargetPrecision: 0.25,
		AbilityStep:     0.2,
		StabilityWindow: 4,
	}

	engine := diag.AdaptiveConfig()

	if engine.MinQuestions != 8 || engine.MaxQuestions != 24 {
		t.Errorf("Expected question bounds carried over, got %+v", engine)
	}
	if engine.TargetPrecision != 0.25 || engine.AbilityStep != 0.2 {
		t.Errorf("Expected estimator settings carried over, got %+v", engine)
	}
	if engine.StabilityWindow != 4 {
		t.Errorf("Expected window 4, got %d", engine.StabilityWindow)
	}
}
