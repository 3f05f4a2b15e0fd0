package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 콘솔 백엔드 전체 설정
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Watch         WatchConfig         `yaml:"watch"`
	Notify        NotifyConfig        `yaml:"notify"`
	Logger        LoggerConfig        `yaml:"logger"`
}

type ServerConfig struct {
	HTTPPort  int    `yaml:"http_port"`
	Host      string `yaml:"host"`
	RateLimit int    `yaml:"rate_limit"` // requests per second per IP, 0 = off
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, postgres
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ElasticsearchConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Addresses   []string `yaml:"addresses"` // 예: ["http://localhost:9200"]
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	IndexPrefix string   `yaml:"index_prefix"` // 예: "pulseone-alarms"
}

// WatchConfig 수집기 헬스 감시 주기/동시성
type WatchConfig struct {
	Enabled       bool `yaml:"enabled"`
	CheckInterval int  `yaml:"check_interval"` // seconds
	Workers       int  `yaml:"workers"`
	OfflineAfter  int  `yaml:"offline_after"` // heartbeat 미수신 허용 시간 (seconds)
	ProbeTimeout  int  `yaml:"probe_timeout"` // HTTP 헬스 프로브 타임아웃 (seconds)
}

// NotifyConfig 알람 통지 발송 설정
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RetryTimes    int    `yaml:"retry_times"`
	RetryInterval int    `yaml:"retry_interval"` // seconds
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPFrom      string `yaml:"smtp_from"`
	SMTPPassword  string `yaml:"smtp_password"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// LoadFromFile 파일에서 설정 로드
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&config)

	return &config, nil
}

// SaveToFile 설정을 파일로 저장
func SaveToFile(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load 환경변수에서 설정 로드
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:  getEnvInt("HTTP_PORT", 8080),
			Host:      getEnv("HOST", "0.0.0.0"),
			RateLimit: getEnvInt("RATE_LIMIT", 50),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "pulseone.db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:     getEnvBool("ES_ENABLED", false),
			Addresses:   getEnvSlice("ES_ADDRESSES", []string{"http://localhost:9200"}),
			Username:    getEnv("ES_USERNAME", ""),
			Password:    getEnv("ES_PASSWORD", ""),
			IndexPrefix: getEnv("ES_INDEX_PREFIX", "pulseone-alarms"),
		},
		Watch: WatchConfig{
			Enabled:       getEnvBool("WATCH_ENABLED", true),
			CheckInterval: getEnvInt("WATCH_INTERVAL", 30),
			Workers:       getEnvInt("WATCH_WORKERS", 5),
			OfflineAfter:  getEnvInt("WATCH_OFFLINE_AFTER", 90),
			ProbeTimeout:  getEnvInt("WATCH_PROBE_TIMEOUT", 5),
		},
		Notify: NotifyConfig{
			Enabled:       getEnvBool("NOTIFY_ENABLED", true),
			RetryTimes:    getEnvInt("NOTIFY_RETRY_TIMES", 3),
			RetryInterval: getEnvInt("NOTIFY_RETRY_INTERVAL", 60),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvInt("SMTP_PORT", 587),
			SMTPFrom:      getEnv("SMTP_FROM", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}
}

// setDefaults 비어 있는 항목에 기본값 적용
func setDefaults(config *Config) {
	if config.Server.HTTPPort == 0 {
		config.Server.HTTPPort = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.RateLimit == 0 {
		config.Server.RateLimit = 50
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}
	if config.Database.DBName == "" {
		config.Database.DBName = "pulseone.db"
	}
	if config.Redis.Addr == "" {
		config.Redis.Addr = "localhost:6379"
	}
	if config.Elasticsearch.IndexPrefix == "" {
		config.Elasticsearch.IndexPrefix = "pulseone-alarms"
	}
	if config.Watch.CheckInterval == 0 {
		config.Watch.CheckInterval = 30
	}
	if config.Watch.Workers == 0 {
		config.Watch.Workers = 5
	}
	if config.Watch.OfflineAfter == 0 {
		config.Watch.OfflineAfter = 90
	}
	if config.Watch.ProbeTimeout == 0 {
		config.Watch.ProbeTimeout = 5
	}
	if config.Notify.RetryTimes == 0 {
		config.Notify.RetryTimes = 3
	}
	if config.Notify.RetryInterval == 0 {
		config.Notify.RetryInterval = 60
	}
	if config.Notify.SMTPPort == 0 {
		config.Notify.SMTPPort = 587
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Output == "" {
		config.Logger.Output = "stdout"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var intVal int
		if _, err := fmt.Sscanf(val, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		return false
	}
	return defaultVal
}

func getEnvSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		var result []string
		for _, v := range splitAndTrim(val, ",") {
			if v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultVal
}

func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate 설정 유효성 검증
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	validDrivers := map[string]bool{
		"sqlite":   true,
		"mysql":    true,
		"postgres": true,
	}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Database.Driver != "sqlite" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty for %s", c.Database.Driver)
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user cannot be empty for %s", c.Database.Driver)
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	} else {
		if c.Database.DBName == "" {
			return fmt.Errorf("database file path cannot be empty for sqlite")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty when enabled")
	}

	if c.Elasticsearch.Enabled {
		if len(c.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("elasticsearch addresses cannot be empty when enabled")
		}
	}

	if c.Watch.Enabled {
		if c.Watch.CheckInterval < 1 {
			return fmt.Errorf("watch check interval must be at least 1 second")
		}
		if c.Watch.Workers < 1 {
			return fmt.Errorf("watch workers must be at least 1")
		}
		if c.Watch.OfflineAfter < c.Watch.CheckInterval {
			return fmt.Errorf("watch offline_after must not be shorter than check_interval")
		}
	}

	if c.Notify.Enabled {
		if c.Notify.RetryTimes < 0 {
			return fmt.Errorf("notify retry times cannot be negative")
		}
		if c.Notify.RetryInterval < 0 {
			return fmt.Errorf("notify retry interval cannot be negative")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logger.Level)
	}

	return nil
}
