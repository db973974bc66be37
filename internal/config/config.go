package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-account-ledger/pkg/database"
)

// 可選的帳本後端
const (
	BackendMemory = "memory"
	BackendEngine = "engine" // 單一寫入者的記憶體帳本
	BackendSQL    = "sql"
	BackendHTTP   = "http"
	BackendGRPC   = "grpc"
)

type Config struct {
	LogLevel        string        `yaml:"log_level"`
	Backend         string        `yaml:"backend"` // memory / engine / sql / http / grpc
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	HTTP     ServerConfig    `yaml:"http"`
	GRPC     ServerConfig    `yaml:"grpc"`
	Memory   MemoryConfig    `yaml:"memory"`
	Database database.Config `yaml:"database"`
	Schema   SchemaConfig    `yaml:"schema"`
	Remote   RemoteConfig    `yaml:"remote"`
	Kafka    KafkaConfig     `yaml:"kafka"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// MemoryConfig memory 與 engine 後端共用，WALPath 為空代表不持久化
type MemoryConfig struct {
	WALPath      string `yaml:"wal_path"`
	EngineBuffer int    `yaml:"engine_buffer"`
}

// SchemaConfig 建表失敗時的重試設定
type SchemaConfig struct {
	Attempts      int           `yaml:"attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// RemoteConfig 後端為 http / grpc 時的遠端帳本位址
type RemoteConfig struct {
	HTTPURL    string        `yaml:"http_url"`
	GRPCTarget string        `yaml:"grpc_target"`
	Timeout    time.Duration `yaml:"timeout"`
}

// KafkaConfig Brokers 為空代表不發布事件
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load 讀取設定檔，補上預設值後套用環境變數
//
// 參數:
//
//	path: YAML 設定檔路徑，檔案不存在時只使用預設值與環境變數
//
// 回傳:
//
//	*Config: 設定
//	error: 讀檔、解析或驗證失敗
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	// 驅動可能由環境變數決定，埠號預設值要在之後補
	if cfg.Database.Port == 0 {
		cfg.Database.Port = database.DefaultPort(cfg.Database.Driver)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Memory.EngineBuffer == 0 {
		c.Memory.EngineBuffer = 1000
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}

	// 補全資料庫預設配置 (如果 yaml 沒寫)
	if c.Database.Driver == "" {
		c.Database.Driver = database.DriverMySQL
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = 5
	}
	if c.Database.ConnectRetryInterval == 0 {
		c.Database.ConnectRetryInterval = 2 * time.Second
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Schema.Attempts == 0 {
		c.Schema.Attempts = 3
	}
	if c.Schema.RetryInterval == 0 {
		c.Schema.RetryInterval = 2 * time.Second
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 10 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "ledger.balance-events"
	}
}

// applyEnv 環境變數優先於設定檔
func (c *Config) applyEnv() error {
	c.LogLevel = getEnvOrDefault("LEDGER_LOG_LEVEL", c.LogLevel)
	c.Backend = getEnvOrDefault("LEDGER_BACKEND", c.Backend)
	c.HTTP.Addr = getEnvOrDefault("LEDGER_HTTP_ADDR", c.HTTP.Addr)
	c.GRPC.Addr = getEnvOrDefault("LEDGER_GRPC_ADDR", c.GRPC.Addr)
	c.Memory.WALPath = getEnvOrDefault("LEDGER_WAL_PATH", c.Memory.WALPath)

	c.Database.Driver = getEnvOrDefault("LEDGER_DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnvOrDefault("LEDGER_DB_HOST", c.Database.Host)
	c.Database.User = getEnvOrDefault("LEDGER_DB_USER", c.Database.User)
	c.Database.Password = getEnvOrDefault("LEDGER_DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnvOrDefault("LEDGER_DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnvOrDefault("LEDGER_DB_SSLMODE", c.Database.SSLMode)
	if port, ok := os.LookupEnv("LEDGER_DB_PORT"); ok {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_DB_PORT: %w", err)
		}
		c.Database.Port = p
	}

	c.Remote.HTTPURL = getEnvOrDefault("LEDGER_REMOTE_HTTP_URL", c.Remote.HTTPURL)
	c.Remote.GRPCTarget = getEnvOrDefault("LEDGER_REMOTE_GRPC_TARGET", c.Remote.GRPCTarget)

	if brokers, ok := os.LookupEnv("LEDGER_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnvOrDefault("LEDGER_KAFKA_TOPIC", c.Kafka.Topic)
	return nil
}

// Validate 檢查後端與其必要設定
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendEngine, BackendSQL:
	case BackendHTTP:
		if c.Remote.HTTPURL == "" {
			return errors.New("backend http requires remote.http_url")
		}
	case BackendGRPC:
		if c.Remote.GRPCTarget == "" {
			return errors.New("backend grpc requires remote.grpc_target")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
