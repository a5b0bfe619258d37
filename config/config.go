package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Karma    KarmaConfig    `mapstructure:"karma"`
	Meeting  MeetingConfig  `mapstructure:"meeting"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port          int        `mapstructure:"port"`
	BodyLimit     int64      `mapstructure:"body_limit"`
	CORS          CORSConfig `mapstructure:"cors"`
	JoinRateLimit int        `mapstructure:"join_rate_limit"` // 每分钟每 IP 加入请求上限
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 身份校验配置（本服务只解析 Access Token，不签发）
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// KarmaActivity 单个 Karma 活动的标签与奖励值
type KarmaActivity struct {
	Hashtag string `mapstructure:"hashtag" yaml:"hashtag"`
	Amount  int    `mapstructure:"amount"  yaml:"amount"`
}

// KarmaConfig 学习圈相关活动的 Karma 配置
type KarmaConfig struct {
	CircleCreate   KarmaActivity `mapstructure:"circle_create"`
	MeetJoin       KarmaActivity `mapstructure:"meet_join"`
	AttendeeReport KarmaActivity `mapstructure:"attendee_report"`
	CircleReport   KarmaActivity `mapstructure:"circle_report"`
	SeedFile       string        `mapstructure:"seed_file"`
}

// MeetingConfig 聚会规则配置
type MeetingConfig struct {
	JoinGraceHours  int           `mapstructure:"join_grace_hours"` // 结束后仍允许加入的小时数
	CodeLength      int           `mapstructure:"code_length"`
	MaxCodeAttempts int           `mapstructure:"max_code_attempts"`
	CodeAttemptTTL  time.Duration `mapstructure:"code_attempt_window"`
	BrowseLookback  time.Duration `mapstructure:"browse_lookback"` // 默认列表回看窗口
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("加载 .env 失败: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("LC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.join_rate_limit", 30)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "learning_circle")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "mulearn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("karma.circle_create.hashtag", "#lcmeetcreate")
	v.SetDefault("karma.circle_create.amount", 20)
	v.SetDefault("karma.meet_join.hashtag", "#lcmeetjoin")
	v.SetDefault("karma.meet_join.amount", 10)
	v.SetDefault("karma.attendee_report.hashtag", "#lcattendeereport")
	v.SetDefault("karma.attendee_report.amount", 20)
	v.SetDefault("karma.circle_report.hashtag", "#lcreport")
	v.SetDefault("karma.circle_report.amount", 30)
	v.SetDefault("karma.seed_file", "config/karma_activities.yaml")

	v.SetDefault("meeting.join_grace_hours", 2)
	v.SetDefault("meeting.code_length", 6)
	v.SetDefault("meeting.max_code_attempts", 5)
	v.SetDefault("meeting.code_attempt_window", "10m")
	v.SetDefault("meeting.browse_lookback", "2h")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Meeting.CodeLength < 4 || c.Meeting.CodeLength > 10 {
		return fmt.Errorf("配置校验失败: meeting.code_length 必须在 4-10 之间")
	}
	if c.Meeting.JoinGraceHours < 0 {
		return fmt.Errorf("配置校验失败: meeting.join_grace_hours 不能为负")
	}
	return nil
}
