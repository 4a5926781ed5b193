package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"diagnosis-service/internal/adaptive"
)

type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	RabbitMQ  RabbitMQConfig
	Diagnosis DiagnosisConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	PoolSize uint64
	Timeout  time.Duration
}

// RabbitMQConfig is optional; an empty URI disables event publishing.
type RabbitMQConfig struct {
	URI      string
	Exchange string
}

// DiagnosisConfig carries the session defaults applied when a report
// or session does not set its own bounds.
type DiagnosisConfig struct {
	MinQuestions    int
	MaxQuestions    int
	TargetPrecision float64
	AbilityStep     float64
	StabilityWindow int
}

// AdaptiveConfig translates the service settings into engine settings.
func (c DiagnosisConfig) AdaptiveConfig() *adaptive.Config {
	return &adaptive.Config{
		MinQuestions:    c.MinQuestions,
		MaxQuestions:    c.MaxQuestions,
		TargetPrecision: c.TargetPrecision,
		AbilityStep:     c.AbilityStep,
		StabilityWindow: c.StabilityWindow,
	}
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "6680"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowOrigins: strings.Split(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ","),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("DIAGNOSIS_SERVICE_MONGO_DB", "diagnosis_service"),
			PoolSize: getEnvAsUint64("MONGODB_POOL_SIZE", 100),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "diagnosis.events"),
		},
		Diagnosis: DiagnosisConfig{
			MinQuestions:    getEnvAsInt("DIAGNOSIS_MIN_QUESTIONS", 10),
			MaxQuestions:    getEnvAsInt("DIAGNOSIS_MAX_QUESTIONS", 30),
			TargetPrecision: getEnvAsFloat("DIAGNOSIS_TARGET_PRECISION", 0.3),
			AbilityStep:     getEnvAsFloat("DIAGNOSIS_ABILITY_STEP", 0.1),
			StabilityWindow: getEnvAsInt("DIAGNOSIS_STABILITY_WINDOW", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		int_val, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("error retrieve int env var: %s", err)
			return defaultValue
		}
		return int_val
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		uint_val, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			log.Printf("error retrieve uint64 env var: %s", err)
			return defaultValue
		}
		return uint_val
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("error retrieve float env var: %s", err)
			return defaultValue
		}
		return floatVal
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		duration, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("error retrieve duration env var: %s", err)
			return defaultValue
		}
		return duration
	}
	return defaultValue
}
