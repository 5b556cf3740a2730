package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Export   ExportConfig   `mapstructure:"export"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
// 成绩源表（course / grade_items / grade_grades 等）与 transfer_records
// 在同一库中，本服务对成绩源表只读
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

// RedisConfig Redis 配置（审计事件流 + 导出接口限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
// APIKeys 为 API Key → 角色（admin | sms）映射，由运维下发
type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	APIKeys   map[string]string `mapstructure:"api_keys"`
}

// ExportConfig 成绩导出（SMS 拉取）配置
type ExportConfig struct {
	// AllowedCourses 允许导出的课程 idnumber 白名单，空表示全部课程
	AllowedCourses []string `mapstructure:"allowed_courses"`
	DefaultLimit   int      `mapstructure:"default_limit"`
	MaxLimit       int      `mapstructure:"max_limit"`
	// RateLimit 导出接口每分钟最大请求数（需 Redis，0 表示不限制）
	RateLimit int `mapstructure:"rate_limit"`
}

// SanitizedAllowedCourses 返回清洗后的课程白名单
// 去除空项，并剥离引号与占位符字符，防止拼入查询条件时被注入
func (c *ExportConfig) SanitizedAllowedCourses() []string {
	replacer := strings.NewReplacer(`'`, "", `"`, "", "`", "", "?", "", "%", "")
	out := make([]string, 0, len(c.AllowedCourses))
	for _, course := range c.AllowedCourses {
		course = strings.TrimSpace(replacer.Replace(course))
		if course != "" {
			out = append(out, course)
		}
	}
	return out
}

// ReportConfig 管理报表配置
type ReportConfig struct {
	// FromDate 报表默认起始时间（unix 秒，0 表示不限）
	FromDate int64 `mapstructure:"from_date"`
	// PageSize 报表默认每页条数
	PageSize int `mapstructure:"page_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "gradelink")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Pacific/Auckland")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "1h")

	v.SetDefault("export.allowed_courses", []string{})
	v.SetDefault("export.default_limit", 1000)
	v.SetDefault("export.max_limit", 5000)
	v.SetDefault("export.rate_limit", 60)

	v.SetDefault("report.from_date", 0)
	v.SetDefault("report.page_size", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	v.SetEnvPrefix("GRADELINK")
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
	for key, role := range c.Auth.APIKeys {
		if role != "admin" && role != "sms" {
			return fmt.Errorf("配置校验失败: auth.api_keys[%s] 角色必须为 admin 或 sms", key)
		}
	}
	if c.Export.DefaultLimit <= 0 || c.Export.MaxLimit < c.Export.DefaultLimit {
		return fmt.Errorf("配置校验失败: export.default_limit/max_limit 不合法")
	}
	return nil
}
