package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Drivers de armazenamento suportados.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config armazena todas as configurações do serviço SweetShop.
type Config struct {
	// Geral
	Port        string `yaml:"port"`
	Environment string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`

	// Armazenamento
	StorageDriver string        `yaml:"storage_driver"`
	DatabaseURL   string        `yaml:"database_url"`
	DBTimeout     time.Duration `yaml:"-"`
	AutoMigrate   bool          `yaml:"auto_migrate"`

	// Cache (Redis). Endereço vazio desliga cache e rate limiting.
	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"-"`

	// Segurança (JWT)
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenExpiry  time.Duration `yaml:"-"`

	// Rate Limiting
	RateLimitMaxRequests int           `yaml:"rate_limit_max_requests"`
	RateLimitPeriod      time.Duration `yaml:"-"`

	// HTTP e autorização
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	EnforceAdminRole   bool     `yaml:"enforce_admin_role"`
	AdminEmails        []string `yaml:"admin_emails"`

	// Campos numéricos do arquivo, convertidos para time.Duration em Load.
	DBTimeoutSec       int `yaml:"db_timeout_sec"`
	CacheTTLSec        int `yaml:"cache_ttl_sec"`
	JWTExpiryHours     int `yaml:"jwt_expiry_hours"`
	RateLimitPeriodMin int `yaml:"rate_limit_period_min"`
}

// defaults devolve a configuração usada quando nada foi informado.
func defaults() *Config {
	return &Config{
		Port:                 "8080",
		Environment:          "development",
		LogLevel:             "info",
		StorageDriver:        DriverPostgres,
		DBTimeoutSec:         5,
		CacheTTLSec:          300,
		JWTExpiryHours:       720,
		RateLimitMaxRequests: 100,
		RateLimitPeriodMin:   1,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// LoadConfig carrega as configurações: padrões, depois o arquivo YAML de CONFIG_FILE
// (se houver) e por fim as variáveis de ambiente, que sempre vencem.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// 1. Geral
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	// 2. Armazenamento
	cfg.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBTimeoutSec = getIntEnv("DB_TIMEOUT_SEC", cfg.DBTimeoutSec)
	cfg.AutoMigrate = getBoolEnv("AUTO_MIGRATE", cfg.AutoMigrate)

	// 3. Cache (Redis)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.CacheTTLSec = getIntEnv("CACHE_TTL_SEC", cfg.CacheTTLSec)

	// 4. Segurança (JWT)
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.JWTExpiryHours = getIntEnv("JWT_EXPIRY_HOURS", cfg.JWTExpiryHours)

	// 5. Rate Limiting
	cfg.RateLimitMaxRequests = getIntEnv("RATE_LIMIT_MAX_REQUESTS", cfg.RateLimitMaxRequests)
	cfg.RateLimitPeriodMin = getIntEnv("RATE_LIMIT_PERIOD_MIN", cfg.RateLimitPeriodMin)

	// 6. HTTP e autorização
	cfg.CORSAllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.EnforceAdminRole = getBoolEnv("ENFORCE_ADMIN_ROLE", cfg.EnforceAdminRole)
	cfg.AdminEmails = getListEnv("ADMIN_EMAILS", cfg.AdminEmails)

	cfg.DBTimeout = time.Duration(cfg.DBTimeoutSec) * time.Second
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
	cfg.TokenExpiry = time.Duration(cfg.JWTExpiryHours) * time.Hour
	cfg.RateLimitPeriod = time.Duration(cfg.RateLimitPeriodMin) * time.Minute

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate garante que o serviço não inicie com uma configuração incompleta.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL deve ser definida quando STORAGE_DRIVER=postgres"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER inválido: %q (use postgres ou memory)", c.StorageDriver))
	}

	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY deve ser definida"))
	}
	if c.DBTimeoutSec <= 0 {
		errs = append(errs, errors.New("DB_TIMEOUT_SEC deve ser positivo"))
	}
	if c.JWTExpiryHours <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS deve ser positivo"))
	}
	if c.CacheTTLSec <= 0 {
		errs = append(errs, errors.New("CACHE_TTL_SEC deve ser positivo"))
	}
	if c.RateLimitMaxRequests < 0 || c.RateLimitPeriodMin <= 0 {
		errs = append(errs, errors.New("limites de rate limiting inválidos"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("erro de configuração: %w", errors.Join(errs...))
	}
	return nil
}

// loadFile aplica o conteúdo do arquivo YAML sobre cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("falha ao ler arquivo de configuração %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("falha ao interpretar arquivo de configuração %s: %w", path, err)
	}
	return nil
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
// Valores inválidos mantêm o padrão.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas, descartando itens vazios.
func getListEnv(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
