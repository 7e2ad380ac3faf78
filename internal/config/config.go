package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCSRFSecret 仅用于本地开发，release 模式下必须通过 CSRF_SECRET 覆盖
const DefaultCSRFSecret = "change-me"

// Config 服务运行所需的全部配置，启动时构造一次后显式传递
type Config struct {
	Addr    string
	GinMode string

	DBDriver string // mysql / postgres / sqlite
	DBDSN    string

	RedisAddr     string // 为空时使用内存会话存储
	RedisPassword string
	RedisDB       int

	SessionTTL   time.Duration
	CookieSecure bool

	CSRFEnabled bool
	CSRFSecret  string
	CSRFTTL     time.Duration

	CORSOrigins []string

	KafkaBrokers        []string // 为空时事件只写日志
	KafkaTopic          string
	KafkaPublishTimeout time.Duration

	MaxIconBytes int64
	LogLevel     string

	LoginRatePerSec float64
	LoginBurst      int
}

// Load 先尝试加载 .env，再从环境变量读取，缺省值适合本地开发
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:    getEnv("ADDR", ":8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		DBDriver: getEnv("DB_DRIVER", "mysql"),
		DBDSN:    getEnv("DB_DSN", "user:password@tcp(127.0.0.1:3306)/community?charset=utf8mb4&parseTime=True"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionTTL:   getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		CSRFEnabled: getEnvBool("CSRF_ENABLED", true),
		CSRFSecret:  getEnv("CSRF_SECRET", DefaultCSRFSecret),
		CSRFTTL:     getEnvDuration("CSRF_TTL", time.Hour),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "https://community-app-lmxz.vercel.app"}),

		KafkaBrokers:        getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "community-events"),
		KafkaPublishTimeout: getEnvDuration("KAFKA_PUBLISH_TIMEOUT", 2*time.Second),

		MaxIconBytes: int64(getEnvInt("MAX_ICON_BYTES", 2<<20)),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		LoginRatePerSec: getEnvFloat("LOGIN_RATE_PER_SEC", 1),
		LoginBurst:      getEnvInt("LOGIN_BURST", 5),
	}
}

// Validate 启动前检查不能带到生产环境的配置
func (c *Config) Validate() error {
	if c.GinMode == "release" && c.CSRFEnabled && c.CSRFSecret == DefaultCSRFSecret {
		return errors.New("CSRF_SECRET must be set when GIN_MODE=release")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList 逗号分隔，忽略空项
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
