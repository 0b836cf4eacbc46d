package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	GigaChat GigaChatConfig
	OCR      OCRConfig
	Cache    CacheConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	RunMigrations bool
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type OCRConfig struct {
	// Engines is the priority order in which engines are tried.
	Engines []string
	// EngineTimeout bounds a single engine call. Zero disables the limit.
	EngineTimeout      time.Duration
	TesseractLanguages []string
	UploadDir          string
}

type CacheConfig struct {
	UserCacheSize int
	UserCacheTTL  time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	engineTimeout, _ := strconv.Atoi(getEnv("OCR_ENGINE_TIMEOUT_SECONDS", "60"))
	userCacheSize, _ := strconv.Atoi(getEnv("USER_CACHE_SIZE", "1024"))
	userCacheTTL, _ := strconv.Atoi(getEnv("USER_CACHE_TTL_SECONDS", "300"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"
	runMigrations := getEnv("DB_RUN_MIGRATIONS", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "docflow"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			RunMigrations: runMigrations,
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		OCR: OCRConfig{
			Engines:            splitList(getEnv("OCR_ENGINES", "tesseract,gigachat,pdf")),
			EngineTimeout:      time.Duration(engineTimeout) * time.Second,
			TesseractLanguages: splitList(getEnv("OCR_TESSERACT_LANGUAGES", "eng,rus")),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Cache: CacheConfig{
			UserCacheSize: userCacheSize,
			UserCacheTTL:  time.Duration(userCacheTTL) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList parses a comma separated value, dropping blanks.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(strings.ToLower(item))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
