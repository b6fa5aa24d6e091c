// Package config 提供应用程序配置和初始化功能
// 该包负责处理应用程序的配置加载、依赖组装和服务器设置等核心功能
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// 存储驱动
const (
	StoreMySQL = "mysql" // MySQL数据库
	StoreFile  = "file"  // 本地JSON文件，适合开发和演示
)

// Config 应用配置，全部来自环境变量或.env文件
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"` // 监听端口
	Env        string `mapstructure:"ENV"`         // 运行环境：development, production

	StoreDriver string `mapstructure:"STORE_DRIVER"` // 存储驱动：mysql, file
	DataFile    string `mapstructure:"DATA_FILE"`    // file驱动的数据文件路径
	DBHost      string `mapstructure:"DB_HOST"`      // 数据库地址
	DBPort      string `mapstructure:"DB_PORT"`      // 数据库端口
	DBUser      string `mapstructure:"DB_USER"`      // 数据库用户名
	DBPassword  string `mapstructure:"DB_PASSWORD"`  // 数据库密码
	DBName      string `mapstructure:"DB_NAME"`      // 数据库名称

	JWTSecret string        `mapstructure:"JWT_SECRET"` // JWT签名密钥
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`  // 令牌有效期

	DefaultCommissionRate float64 `mapstructure:"DEFAULT_COMMISSION_RATE"` // 平台默认佣金比例（百分比）

	RedisAddr        string   `mapstructure:"REDIS_ADDR"`         // Redis地址，为空时使用进程内登录限制
	KafkaBrokers     []string `mapstructure:"KAFKA_BROKERS"`      // Kafka地址，为空时只发送站内通知
	KafkaNotifyTopic string   `mapstructure:"KAFKA_NOTIFY_TOPIC"` // 通知事件主题

	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"` // 最大登录失败次数
	LoginLockMinutes int `mapstructure:"LOGIN_LOCK_MINUTES"` // 锁定分钟数

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`    // 启动时创建的管理员邮箱
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"` // 启动时创建的管理员密码
}

// defaults 各配置项的默认值，同时决定viper会读取哪些环境变量
var defaults = map[string]interface{}{
	"SERVER_PORT":             "8080",
	"ENV":                     "development",
	"STORE_DRIVER":            StoreFile,
	"DATA_FILE":               "data/foodconnect.json",
	"DB_HOST":                 "127.0.0.1",
	"DB_PORT":                 "3306",
	"DB_USER":                 "root",
	"DB_PASSWORD":             "",
	"DB_NAME":                 "foodconnect",
	"JWT_SECRET":              "",
	"TOKEN_TTL":               "24h",
	"DEFAULT_COMMISSION_RATE": 15.0,
	"REDIS_ADDR":              "",
	"KAFKA_BROKERS":           "",
	"KAFKA_NOTIFY_TOPIC":      "foodconnect.notifications",
	"LOGIN_MAX_ATTEMPTS":      5,
	"LOGIN_LOCK_MINUTES":      15,
	"ADMIN_EMAIL":             "",
	"ADMIN_PASSWORD":          "",
}

// Load 读取配置
// 先加载.env文件（不存在时忽略），再从环境变量读取
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "解析配置失败")
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	return cfg, cfg.validate()
}

// IsProduction 是否为生产环境
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) validate() error {
	if c.StoreDriver != StoreMySQL && c.StoreDriver != StoreFile {
		return errors.Errorf("不支持的STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("在生产环境中必须设置JWT_SECRET环境变量")
	}
	if c.DefaultCommissionRate < 0 || c.DefaultCommissionRate > 100 {
		return errors.Errorf("DEFAULT_COMMISSION_RATE必须在0到100之间，当前为%v", c.DefaultCommissionRate)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL必须大于0")
	}
	return nil
}

// splitList 去掉空白项，兼容"a, b"和"a,b"两种写法
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
