package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DBDriver         string // postgres / sqlite
	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string
	SQLitePath       string

	RedisAddr     string // 空ならメモリのカート
	RedisPassword string
	RedisDB       int

	SessionTTL   time.Duration // セッション（=カート）の寿命
	CartLockWait time.Duration // カートのロック待ち上限
	CartLockTTL  time.Duration // 保持者が落ちた時の自動解放まで
	CookieSecure bool

	JWTSecret      string // JWT署名シークレット
	AccessTokenTTL time.Duration

	AdminUsername string // 起動時に作る管理者
	AdminPassword string
	AdminEmail    string

	CatalogFile string // 空なら組み込みの商品一覧

	MailProvider        string // log / postmark / sendgrid
	PostmarkServerToken string
	SendGridAPIKey      string
	MailFrom            string

	KafkaBrokers []string // 空ならイベント送信しない
	KafkaTopic   string

	NotifyWorkers     int
	NotifyQueue       int
	NotifyTimeout     time.Duration
	NotifyMaxAttempts int
}

const devJWTSecret = "dev_secret_change_me"

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// Loadは環境変数から読む（.envがあれば先に読み込む）
func Load() (Config, error) {
	_ = godotenv.Load()

	var err error
	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", "dev"),

		DBDriver:         strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "storefront"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getenv("SQLITE_PATH", "storefront.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminUsername: getenv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    getenv("ADMIN_EMAIL", "admin@example.com"),

		CatalogFile: os.Getenv("CATALOG_FILE"),

		MailProvider:        strings.ToLower(getenv("MAIL_PROVIDER", "log")),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:            os.Getenv("MAIL_FROM"),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "storefront.orders"),
	}

	if cfg.PostgresPort, err = envInt("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CartLockWait, err = envDuration("CART_LOCK_WAIT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CartLockTTL, err = envDuration("CART_LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.NotifyWorkers, err = envInt("NOTIFY_WORKERS", 2); err != nil {
		return Config{}, err
	}
	if cfg.NotifyQueue, err = envInt("NOTIFY_QUEUE", 100); err != nil {
		return Config{}, err
	}
	if cfg.NotifyTimeout, err = envDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NotifyMaxAttempts, err = envInt("NOTIFY_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite: %q", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if c.IsProd() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.JWTSecret = devJWTSecret
	}

	switch c.MailProvider {
	case "log":
	case "postmark":
		if c.PostmarkServerToken == "" {
			return fmt.Errorf("POSTMARK_SERVER_TOKEN is required")
		}
		if c.MailFrom == "" {
			return fmt.Errorf("MAIL_FROM is required")
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required")
		}
		if c.MailFrom == "" {
			return fmt.Errorf("MAIL_FROM is required")
		}
	default:
		return fmt.Errorf("MAIL_PROVIDER must be log, postmark or sendgrid: %q", c.MailProvider)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CartLockTTL < 100*time.Millisecond {
		return fmt.Errorf("CART_LOCK_TTL must be >= 100ms")
	}
	if c.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be >= 1")
	}
	if c.NotifyQueue < 1 {
		return fmt.Errorf("NOTIFY_QUEUE must be >= 1")
	}
	if c.NotifyMaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
