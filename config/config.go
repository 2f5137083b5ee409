// =============================================================================
// 📦 DesignFlow 配置结构
// =============================================================================
// 统一配置定义，供加载器与各组件共享
// =============================================================================
package config

import (
	"fmt"
	"time"
)

// Config 是 DesignFlow 的完整配置结构
type Config struct {
	// Engine 共识引擎配置
	Engine EngineConfig `yaml:"engine"`

	// Bus 消息总线配置
	Bus BusConfig `yaml:"bus"`

	// Store 会话结果存储配置
	Store StoreConfig `yaml:"store"`

	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig 共识引擎配置
type EngineConfig struct {
	// 平均分达到该阈值才可能批准
	ApprovalThreshold float64 `yaml:"approval_threshold"`
	// 分差不超过该带宽才算完全共识
	ConsensusSpread float64 `yaml:"consensus_spread"`
	// 单轮共识评估的超时
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
	// 会话迭代预算
	MaxIterations int `yaml:"max_iterations"`
}

// BusConfig 消息总线配置
type BusConfig struct {
	// 每个订阅的缓冲大小
	BufferSize int `yaml:"buffer_size"`
}

// StoreConfig 会话结果存储配置
type StoreConfig struct {
	// 后端类型: memory | redis | database | mongo
	Type string `yaml:"type"`

	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	PoolSize  int    `yaml:"pool_size"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MongoConfig Mongo 配置
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// 限流 RPS
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	// 限流突发
	RateLimitBurst int `yaml:"rate_limit_burst"`
	// JWT 鉴权开关
	AuthEnabled bool `yaml:"auth_enabled"`
	// JWT 签名密钥（HS256）
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 级别: debug | info | warn | error
	Level string `yaml:"level"`
	// 格式: json | console
	Format string `yaml:"format"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Validate 校验配置的基本一致性
func (c *Config) Validate() error {
	if c.Engine.ApprovalThreshold <= 0 || c.Engine.ApprovalThreshold > 1 {
		return fmt.Errorf("engine.approval_threshold must be in (0, 1], got %v", c.Engine.ApprovalThreshold)
	}
	if c.Engine.ConsensusSpread < 0 || c.Engine.ConsensusSpread > 1 {
		return fmt.Errorf("engine.consensus_spread must be in [0, 1], got %v", c.Engine.ConsensusSpread)
	}
	if c.Engine.MaxIterations <= 0 {
		return fmt.Errorf("engine.max_iterations must be positive, got %d", c.Engine.MaxIterations)
	}
	if c.Server.AuthEnabled && c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required when auth is enabled")
	}
	switch c.Store.Type {
	case "", "memory", "redis", "database", "mongo":
	default:
		return fmt.Errorf("unknown store.type %q", c.Store.Type)
	}
	return nil
}
