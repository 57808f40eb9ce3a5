// Пакет config — загрузка и валидация конфигурации task-tracker
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Хранилища слота сессии.
const (
	SessionBackendCookie   = "cookie"
	SessionBackendPostgres = "postgres"
)

// Config содержит все параметры конфигурации task-tracker.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера
	HTTPIdleTimeout time.Duration

	// --- Бэкенд активностей ---

	// Базовый URL REST-бэкенда (без /activities/)
	BackendURL string
	// Таймаут HTTP-запроса к бэкенду
	BackendTimeout time.Duration
	// Путь health endpoint бэкенда для dephealth
	BackendHealthPath string
	// Путь к CA-сертификату для TLS-соединений с бэкендом (опционально)
	BackendCACertPath string
	// Секрет подписи bearer-токенов (пустой — запросы без Authorization)
	BackendTokenSecret string
	// Время жизни bearer-токена
	BackendTokenTTL time.Duration

	// --- Сессии ---

	// Задержка имитации входа
	LoginDelay time.Duration
	// Ключ шифрования cookie-сессий (пустой — случайный при старте)
	SessionSecret string
	// Флаг Secure у cookie сессии
	SessionSecure bool
	// Хранилище слота сессии: cookie, postgres
	SessionBackend string
	// Лимит попыток входа с одного IP за окно
	LoginRateRequests int
	// Окно лимита попыток входа
	LoginRateWindow time.Duration

	// --- PostgreSQL (только при SessionBackend=postgres) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Коллекции активностей ---

	// Максимум пользователей, чьи коллекции держатся в памяти
	StoreCacheSize int
	// Время жизни коллекции в памяти
	StoreTTL time.Duration

	// --- UI ---

	// Язык интерфейса по умолчанию (en, ar)
	DefaultLang string

	// --- Мониторинг ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// TT_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("TT_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("TT_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("TT_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// TT_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TT_LOG_LEVEL: %w", err)
	}

	// TT_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TT_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Бэкенд активностей ---

	// TT_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("TT_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if u, perr := url.Parse(cfg.BackendURL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("TT_BACKEND_URL: некорректный URL %q, ожидается http(s)://host[:port]", cfg.BackendURL)
	}

	// TT_BACKEND_TIMEOUT — таймаут запроса к бэкенду (по умолчанию 10s)
	cfg.BackendTimeout, err = getEnvPositiveDuration("TT_BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_BACKEND_TIMEOUT: %w", err)
	}

	// TT_BACKEND_HEALTH_PATH — health endpoint бэкенда (по умолчанию /health)
	cfg.BackendHealthPath = getEnvDefault("TT_BACKEND_HEALTH_PATH", "/health")
	if !strings.HasPrefix(cfg.BackendHealthPath, "/") {
		return nil, fmt.Errorf("TT_BACKEND_HEALTH_PATH: путь %q должен начинаться с /", cfg.BackendHealthPath)
	}

	// TT_BACKEND_CA_CERT_PATH — путь к CA-сертификату бэкенда (опционально)
	cfg.BackendCACertPath = getEnvDefault("TT_BACKEND_CA_CERT_PATH", "")

	// TT_BACKEND_TOKEN_SECRET — секрет bearer-токенов (опционально)
	cfg.BackendTokenSecret = getEnvDefault("TT_BACKEND_TOKEN_SECRET", "")

	// TT_BACKEND_TOKEN_TTL — время жизни bearer-токена (по умолчанию 5m)
	cfg.BackendTokenTTL, err = getEnvPositiveDuration("TT_BACKEND_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("TT_BACKEND_TOKEN_TTL: %w", err)
	}

	// --- Сессии ---

	// TT_LOGIN_DELAY — задержка имитации входа (по умолчанию 800ms)
	cfg.LoginDelay, err = getEnvDuration("TT_LOGIN_DELAY", 800*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("TT_LOGIN_DELAY: %w", err)
	}
	if cfg.LoginDelay < 0 {
		return nil, fmt.Errorf("TT_LOGIN_DELAY: значение не может быть отрицательным")
	}

	// TT_SESSION_SECRET — ключ шифрования сессий (опционально)
	cfg.SessionSecret = getEnvDefault("TT_SESSION_SECRET", "")

	// TT_SESSION_SECURE — флаг Secure у cookie (по умолчанию false)
	cfg.SessionSecure, err = getEnvBool("TT_SESSION_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("TT_SESSION_SECURE: %w", err)
	}

	// TT_SESSION_BACKEND — хранилище слота сессии (по умолчанию cookie)
	cfg.SessionBackend = getEnvDefault("TT_SESSION_BACKEND", SessionBackendCookie)
	if cfg.SessionBackend != SessionBackendCookie && cfg.SessionBackend != SessionBackendPostgres {
		return nil, fmt.Errorf("TT_SESSION_BACKEND: недопустимое значение %q, допустимые: cookie, postgres", cfg.SessionBackend)
	}

	// TT_LOGIN_RATE_REQUESTS — попыток входа с одного IP за окно (по умолчанию 10)
	cfg.LoginRateRequests, err = getEnvInt("TT_LOGIN_RATE_REQUESTS", 10)
	if err != nil {
		return nil, fmt.Errorf("TT_LOGIN_RATE_REQUESTS: %w", err)
	}
	if cfg.LoginRateRequests < 1 {
		return nil, fmt.Errorf("TT_LOGIN_RATE_REQUESTS: значение %d должно быть > 0", cfg.LoginRateRequests)
	}

	// TT_LOGIN_RATE_WINDOW — окно лимита попыток входа (по умолчанию 1m)
	cfg.LoginRateWindow, err = getEnvPositiveDuration("TT_LOGIN_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("TT_LOGIN_RATE_WINDOW: %w", err)
	}

	// --- PostgreSQL ---

	if cfg.SessionBackend == SessionBackendPostgres {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// --- Коллекции активностей ---

	// TT_STORE_CACHE_SIZE — пользователей в памяти (по умолчанию 1000)
	cfg.StoreCacheSize, err = getEnvInt("TT_STORE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("TT_STORE_CACHE_SIZE: %w", err)
	}
	if cfg.StoreCacheSize < 1 {
		return nil, fmt.Errorf("TT_STORE_CACHE_SIZE: значение %d должно быть > 0", cfg.StoreCacheSize)
	}

	// TT_STORE_TTL — время жизни коллекции (по умолчанию 12h)
	cfg.StoreTTL, err = getEnvPositiveDuration("TT_STORE_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TT_STORE_TTL: %w", err)
	}

	// --- UI ---

	// TT_DEFAULT_LANG — язык по умолчанию (по умолчанию en)
	cfg.DefaultLang = getEnvDefault("TT_DEFAULT_LANG", "en")
	if cfg.DefaultLang != "en" && cfg.DefaultLang != "ar" {
		return nil, fmt.Errorf("TT_DEFAULT_LANG: недопустимое значение %q, допустимые: en, ar", cfg.DefaultLang)
	}

	// --- Мониторинг ---

	// TT_DEPHEALTH_GROUP — группа в метриках dephealth (по умолчанию task-tracker)
	cfg.DephealthGroup = getEnvDefault("TT_DEPHEALTH_GROUP", "task-tracker")

	// TT_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("TT_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// TT_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvPositiveDuration("TT_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_HTTP_READ_TIMEOUT: %w", err)
	}

	// TT_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvPositiveDuration("TT_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// TT_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvPositiveDuration("TT_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// TT_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvPositiveDuration("TT_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TT_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase загружает параметры PostgreSQL.
func loadDatabase(cfg *Config) error {
	var err error

	// TT_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("TT_DB_HOST")
	if err != nil {
		return err
	}

	// TT_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("TT_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("TT_DB_PORT: %w", err)
	}

	// TT_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("TT_DB_NAME")
	if err != nil {
		return err
	}

	// TT_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("TT_DB_USER")
	if err != nil {
		return err
	}

	// TT_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("TT_DB_PASSWORD")
	if err != nil {
		return err
	}

	// TT_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("TT_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("TT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// UsesPostgres сообщает, хранятся ли слоты сессий в PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.SessionBackend == SessionBackendPostgres
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvPositiveDuration — getEnvDuration с проверкой d > 0.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
