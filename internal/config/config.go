package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	units "github.com/docker/go-units"
	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		GRPCPort    int // 0 отключает gRPC health сервер
		Environment string
	}
	Storage struct {
		StaticDir     string
		UploadDir     string
		ResultDir     string
		MaxUploadSize int64 // в байтах
	}
	Detection struct {
		ServiceURL          string
		Timeout             int // в секундах, 0 - без ограничения
		ConfidenceThreshold float64
		LineWidth           float64
		FontSize            float64
		SampleFrames        int
	}
	Transcoder struct {
		VideoCodec  string
		PixelFormat string
	}
	Database struct {
		Enabled  bool
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Logging struct {
		Level string
		File  string
	}
	CORS struct {
		AllowOrigins []string
	}
}

// LoadConfig загружает конфигурацию из .env и переменных окружения
func LoadConfig() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 5000)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.GRPCPort = getEnvInt("GRPC_PORT", 9090)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Каталоги для загрузок и результатов
	cfg.Storage.StaticDir = getEnv("STATIC_DIR", "static")
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", filepath.Join(cfg.Storage.StaticDir, "uploads"))
	cfg.Storage.ResultDir = getEnv("RESULT_DIR", filepath.Join(cfg.Storage.StaticDir, "results"))

	maxSize, err := getEnvSize("MAX_UPLOAD_SIZE", "100MiB")
	if err != nil {
		return nil, err
	}
	cfg.Storage.MaxUploadSize = maxSize

	// Конфигурация Python сервиса с моделью
	cfg.Detection.ServiceURL = strings.TrimRight(getEnv("DETECTION_SERVICE_URL", "http://localhost:8000"), "/")
	cfg.Detection.Timeout = getEnvInt("DETECTION_TIMEOUT_SECONDS", 0)
	cfg.Detection.ConfidenceThreshold = getEnvFloat("DETECTION_CONFIDENCE", 0.25)
	cfg.Detection.LineWidth = getEnvFloat("ANNOTATION_LINE_WIDTH", 2)
	cfg.Detection.FontSize = getEnvFloat("ANNOTATION_FONT_SIZE", 10)
	cfg.Detection.SampleFrames = getEnvInt("VIDEO_SAMPLE_FRAMES", 5)

	cfg.Transcoder.VideoCodec = getEnv("TRANSCODE_VIDEO_CODEC", "libx264")
	cfg.Transcoder.PixelFormat = getEnv("TRANSCODE_PIXEL_FORMAT", "yuv420p")

	// История загрузок в PostgreSQL
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "helmet_detector")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres123")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "")

	cfg.CORS.AllowOrigins = splitList(getEnv("CORS_ALLOW_ORIGINS", "*"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("DETECTION_CONFIDENCE must be within [0, 1], got %v", c.Detection.ConfidenceThreshold)
	}
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.Detection.SampleFrames < 0 {
		return fmt.Errorf("VIDEO_SAMPLE_FRAMES must not be negative")
	}
	return nil
}

// Address адрес HTTP сервера
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN строка подключения к PostgreSQL
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSize разбирает размер вида "100MiB" или "50MB" в байты
func getEnvSize(key, defaultValue string) (int64, error) {
	raw := getEnv(key, defaultValue)
	size, err := units.RAMInBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return size, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
