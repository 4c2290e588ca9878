package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken string `mapstructure:"telegram_token"`
	HTTPAddr      string `mapstructure:"http_addr"`
	// AllowedOrigins — источники, которым REST API отвечает с CORS-заголовками.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	Analysis struct {
		Workers       int    `mapstructure:"workers"`
		MaxImages     int    `mapstructure:"max_images"`
		MaxUploadMB   int    `mapstructure:"max_upload_mb"`
		Decoder       string `mapstructure:"decoder"`
		SurfaceChecks bool   `mapstructure:"surface_checks"`
	} `mapstructure:"analysis"`

	// DBPath пустой — отчёты хранятся в памяти.
	DBPath string `mapstructure:"db_path"`

	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"openai"`

	Minio struct {
		Endpoint   string `mapstructure:"endpoint"`
		AccessKey  string `mapstructure:"access_key"`
		SecretKey  string `mapstructure:"secret_key"`
		BucketName string `mapstructure:"bucket_name"`
		Region     string `mapstructure:"region"`
		UseSSL     bool   `mapstructure:"use_ssl"`
	} `mapstructure:"minio"`
}

// ключ конфигурации -> переменная окружения
var envKeys = map[string]string{
	"telegram_token":          "TELEGRAM_TOKEN",
	"http_addr":               "HTTP_ADDR",
	"allowed_origins":         "CORS_ORIGINS",
	"log.level":               "LOG_LEVEL",
	"log.file":                "LOG_FILE",
	"analysis.workers":        "ANALYSIS_WORKERS",
	"analysis.max_images":     "MAX_IMAGES",
	"analysis.max_upload_mb":  "MAX_UPLOAD_MB",
	"analysis.decoder":        "IMAGE_DECODER",
	"analysis.surface_checks": "SURFACE_CHECKS",
	"db_path":                 "DB_PATH",
	"openai.api_key":          "OPENAI_API_KEY",
	"openai.base_url":         "OPENAI_BASE_URL",
	"openai.model":            "OPENAI_MODEL",
	"minio.endpoint":          "MINIO_ENDPOINT",
	"minio.access_key":        "MINIO_ACCESS_KEY",
	"minio.secret_key":        "MINIO_SECRET_KEY",
	"minio.bucket_name":       "MINIO_BUCKET",
	"minio.region":            "MINIO_REGION",
	"minio.use_ssl":           "MINIO_USE_SSL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.max_images", 20)
	v.SetDefault("analysis.max_upload_mb", 32)
	v.SetDefault("analysis.decoder", "std")
	v.SetDefault("analysis.surface_checks", false)
	v.SetDefault("db_path", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket_name", "diagnoses")
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл, затем окружение
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	path := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile читает YAML поверх значений по умолчанию и накладывает окружение; отсутствующий файл не ошибка
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = compact(cfg.AllowedOrigins)
	return &cfg, nil
}

// Validate проверяет лимиты и имя декодера
func (c *Config) Validate() error {
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis workers must be positive, got %d", c.Analysis.Workers)
	}
	if c.Analysis.MaxImages < 1 {
		return fmt.Errorf("max images must be positive, got %d", c.Analysis.MaxImages)
	}
	if c.Analysis.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.Analysis.MaxUploadMB)
	}
	switch c.Analysis.Decoder {
	case "std", "gocv":
	default:
		return fmt.Errorf("unknown image decoder %q", c.Analysis.Decoder)
	}
	return nil
}

// MaxUploadBytes возвращает лимит тела запроса в байтах
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Analysis.MaxUploadMB) << 20
}

// compact убирает пробелы и пустые элементы списка из CORS_ORIGINS
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
