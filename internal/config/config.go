// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
}

// StorageConfig 存储引擎配置
// engine 取值 "mysql" 或 "memory"，两种实现暴露同一套 Repository 接口
type StorageConfig struct {
	Engine string `toml:"engine"`
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`  // 关闭后所有缓存路径退化为直查存储
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 消息归档配置
// messageMode 为 "kafka" 时，落库成功的消息会同步发布到归档主题
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // "channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	ChatTopic   string        `toml:"chatTopic"`   // 聊天消息归档主题
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 超时时间
}

// ChatConfig 聊天核心配置
type ChatConfig struct {
	HistoryLimit int `toml:"historyLimit"` // 进入聊天时回放的历史条数
	RetentionCap int `toml:"retentionCap"` // 消息保留上限，FIFO 淘汰
	ChannelSize  int `toml:"channelSize"`  // Hub 事件通道缓冲
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret           string `toml:"secret"`           // JWT 签名密钥，建议 32 字符以上
	TokenExpiryHours int    `toml:"tokenExpiryHours"` // Token 有效期（小时）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 节点 ID，范围 0-1023
}

// StaticSrcConfig 静态资源路径配置
type StaticSrcConfig struct {
	StaticPath string `toml:"staticPath"` // 前端静态文件目录
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	StorageConfig   `toml:"storageConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	ChatConfig      `toml:"chatConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	StaticSrcConfig `toml:"staticSrcConfig"`
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，加载失败时使用零值加默认值
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
		config.applyDefaults()
	}
	return config
}

// applyDefaults 填充缺省配置项
func (c *Config) applyDefaults() {
	if c.StorageConfig.Engine == "" {
		c.StorageConfig.Engine = "memory"
	}
	if c.ChatConfig.HistoryLimit == 0 {
		c.ChatConfig.HistoryLimit = 50
	}
	if c.ChatConfig.RetentionCap == 0 {
		c.ChatConfig.RetentionCap = 1000
	}
	if c.ChatConfig.ChannelSize == 0 {
		c.ChatConfig.ChannelSize = 100
	}
	if c.JWTConfig.TokenExpiryHours == 0 {
		c.JWTConfig.TokenExpiryHours = 168
	}
	if c.JWTConfig.Secret == "" {
		c.JWTConfig.Secret = "vesper-chat-secret-key-2024"
	}
}
