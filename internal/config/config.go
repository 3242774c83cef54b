package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis_service"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Admin       AdminConfig    `mapstructure:"admin"`
	CORS        CORSConfig     `mapstructure:"cors"`
	Dataset     DatasetConfig  `mapstructure:"dataset"`
	Trainer     TrainerConfig  `mapstructure:"trainer_services"`
	ProjectRoot string         `mapstructure:"project_root"`
}

// GetTrainerServices 获取训练服务地址列表
func (c *Config) GetTrainerServices() []string {
	return c.Trainer.DefaultServices
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// GetAddress 获取服务器地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	DB                    int    `mapstructure:"db"`
	Password              string `mapstructure:"password"`
	DefaultMaxConcurrency int    `mapstructure:"default_max_concurrency"`
}

// GetAddress 获取Redis地址
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	Algorithm     string `mapstructure:"algorithm"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// GetExpireDuration 获取过期时间
func (j *JWTConfig) GetExpireDuration() time.Duration {
	return time.Duration(j.ExpireMinutes) * time.Minute
}

// AdminConfig 管理员配置
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig CORS配置
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// DatasetConfig 合并过滤流水线配置
type DatasetConfig struct {
	InputDir    string `mapstructure:"input_dir"`
	OutputFile  string `mapstructure:"output_file"`
	RemovedFile string `mapstructure:"removed_file"`
}

// TrainerConfig 训练服务配置
type TrainerConfig struct {
	DefaultServices  []string `mapstructure:"default_services"`
	DefaultBaseModel string   `mapstructure:"default_base_model"`
	DefaultAPIKey    string   `mapstructure:"default_api_key"`
	PollSeconds      int      `mapstructure:"poll_seconds"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds"`
}

// GetPollInterval 获取任务状态轮询间隔
func (t *TrainerConfig) GetPollInterval() time.Duration {
	return time.Duration(t.PollSeconds) * time.Second
}

// GetTimeout 获取训练服务请求超时
func (t *TrainerConfig) GetTimeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}
