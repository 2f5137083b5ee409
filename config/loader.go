// =============================================================================
// 📦 DesignFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DESIGNFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{envPrefix: "DESIGNFLOW"}
}

// WithConfigPath 指定 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 指定环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load 加载配置: 默认值 → YAML → 环境变量，最后校验
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv 用环境变量覆盖标量配置项
func (l *Loader) applyEnv(cfg *Config) {
	setString(l.env("LOG_LEVEL"), &cfg.Log.Level)
	setString(l.env("LOG_FORMAT"), &cfg.Log.Format)

	setFloat(l.env("ENGINE_APPROVAL_THRESHOLD"), &cfg.Engine.ApprovalThreshold)
	setFloat(l.env("ENGINE_CONSENSUS_SPREAD"), &cfg.Engine.ConsensusSpread)
	setInt(l.env("ENGINE_MAX_ITERATIONS"), &cfg.Engine.MaxIterations)
	setDuration(l.env("ENGINE_EVALUATION_TIMEOUT"), &cfg.Engine.EvaluationTimeout)

	setInt(l.env("BUS_BUFFER_SIZE"), &cfg.Bus.BufferSize)

	setString(l.env("STORE_TYPE"), &cfg.Store.Type)
	setString(l.env("STORE_REDIS_ADDR"), &cfg.Store.Redis.Addr)
	setString(l.env("STORE_REDIS_PASSWORD"), &cfg.Store.Redis.Password)
	setString(l.env("STORE_DATABASE_DRIVER"), &cfg.Store.Database.Driver)
	setString(l.env("STORE_DATABASE_DSN"), &cfg.Store.Database.DSN)
	setString(l.env("STORE_MONGO_URI"), &cfg.Store.Mongo.URI)

	setInt(l.env("SERVER_HTTP_PORT"), &cfg.Server.HTTPPort)
	setBool(l.env("SERVER_AUTH_ENABLED"), &cfg.Server.AuthEnabled)
	setString(l.env("SERVER_JWT_SECRET"), &cfg.Server.JWTSecret)

	setBool(l.env("TELEMETRY_ENABLED"), &cfg.Telemetry.Enabled)
	setString(l.env("TELEMETRY_OTLP_ENDPOINT"), &cfg.Telemetry.OTLPEndpoint)
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}

func setString(v string, dst *string) {
	if v != "" {
		*dst = v
	}
}

func setInt(v string, dst *int) {
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setFloat(v string, dst *float64) {
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func setBool(v string, dst *bool) {
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func setDuration(v string, dst *time.Duration) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
