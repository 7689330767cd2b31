package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string   `yaml:"secret"`
		TTL    Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // для local
		BaseURL    string `yaml:"base_url"`    // публичный префикс URL
		Bucket     string `yaml:"bucket"`      // S3/R2
		Region     string `yaml:"region"`      // S3
		AccessKey  string `yaml:"access_key"`  // S3/R2
		SecretKey  string `yaml:"secret_key"`  // S3/R2
		Endpoint   string `yaml:"endpoint"`    // R2 или свой S3
		UseSSL     bool   `yaml:"use_ssl"`     // S3/R2
		PublicRead bool   `yaml:"public_read"` // публичные объекты
		Breaker    struct {
			Enabled     bool     `yaml:"enabled"`
			MaxFailures uint32   `yaml:"max_failures"`
			OpenTimeout Duration `yaml:"open_timeout"`
		} `yaml:"breaker"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize       int64    `yaml:"max_size"`      // байт на файл
		MaxFiles      int      `yaml:"max_files"`     // файлов на объявление
		AllowedTypes  []string `yaml:"allowed_types"` // MIME-типы
		ImageQuality  int      `yaml:"image_quality"` // JPEG 1-100
		MaxDimension  int      `yaml:"max_dimension"` // большие фото ужимаются до этого размера
		RetryAttempts uint     `yaml:"retry_attempts"`
		RetryDelay    Duration `yaml:"retry_delay"`
	} `yaml:"upload"`

	Quota struct {
		FreeAdLimit int64 `yaml:"free_ad_limit"`
	} `yaml:"quota"`

	Scheduler struct {
		Enabled    bool     `yaml:"enabled"`
		Interval   Duration `yaml:"interval"`
		LockTTL    Duration `yaml:"lock_ttl"`
		RunOnStart bool     `yaml:"run_on_start"`
		LockDriver string   `yaml:"lock_driver"` // local, redis
	} `yaml:"scheduler"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Notifications struct {
		Driver  string   `yaml:"driver"` // log, email, rabbitmq
		Timeout Duration `yaml:"timeout"`
		SMTP    struct {
			Host      string `yaml:"host"`
			Port      int    `yaml:"port"`
			Username  string `yaml:"user"`
			Password  string `yaml:"password"`
			FromEmail string `yaml:"from_email"`
			FromName  string `yaml:"from_name"`
		} `yaml:"smtp"`
		AMQP struct {
			URL      string `yaml:"url"`
			Exchange string `yaml:"exchange"`
		} `yaml:"amqp"`
	} `yaml:"notifications"`

	Payments struct {
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"payments"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Duration понимает в YAML как "24h"/"30s", так и целое число секунд
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load читает .env (если есть), YAML-файл и переменные окружения.
// Пустой path - берётся CONFIG_PATH или config/config.yaml.
// Отсутствие файла не ошибка: можно жить только на env.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// только переменные окружения
	default:
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Notifications.Driver, "NOTIFICATIONS_DRIVER")
	setString(&cfg.Notifications.AMQP.URL, "AMQP_URL")
	setString(&cfg.Notifications.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.Payments.WebhookSecret, "PAYMENT_WEBHOOK_SECRET")
	setString(&cfg.Scheduler.LockDriver, "SCHEDULER_LOCK_DRIVER")

	if v := os.Getenv("SCHEDULER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.Interval = Duration(d)
		}
	}
	if v := os.Getenv("FREE_AD_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.FreeAdLimit = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = Duration(24 * time.Hour)
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Storage.BaseURL == "" && cfg.Storage.Type == "local" {
		cfg.Storage.BaseURL = "/uploads"
	}
	if cfg.Storage.Breaker.MaxFailures == 0 {
		cfg.Storage.Breaker.MaxFailures = 5
	}
	if cfg.Storage.Breaker.OpenTimeout == 0 {
		cfg.Storage.Breaker.OpenTimeout = Duration(30 * time.Second)
	}

	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	}
	if cfg.Upload.MaxFiles == 0 {
		cfg.Upload.MaxFiles = 10
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	}
	if cfg.Upload.ImageQuality == 0 {
		cfg.Upload.ImageQuality = 85
	}
	if cfg.Upload.MaxDimension == 0 {
		cfg.Upload.MaxDimension = 1600
	}
	if cfg.Upload.RetryAttempts == 0 {
		cfg.Upload.RetryAttempts = 3
	}
	if cfg.Upload.RetryDelay == 0 {
		cfg.Upload.RetryDelay = Duration(200 * time.Millisecond)
	}

	if cfg.Quota.FreeAdLimit == 0 {
		cfg.Quota.FreeAdLimit = 3
	}

	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = Duration(24 * time.Hour)
	}
	if cfg.Scheduler.LockTTL == 0 {
		cfg.Scheduler.LockTTL = Duration(10 * time.Minute)
	}
	if cfg.Scheduler.LockDriver == "" {
		cfg.Scheduler.LockDriver = "local"
	}

	if cfg.Notifications.Driver == "" {
		cfg.Notifications.Driver = "log"
	}
	if cfg.Notifications.Timeout == 0 {
		cfg.Notifications.Timeout = Duration(10 * time.Second)
	}
	if cfg.Notifications.AMQP.Exchange == "" {
		cfg.Notifications.AMQP.Exchange = "classifieds.events"
	}

	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
}

// Validate проверяет то, без чего сервер стартовать не должен
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database url is required (database.url or DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (jwt.secret or JWT_SECRET)")
	}
	switch c.Storage.Type {
	case "local", "s3", "cloudflare_r2":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	switch c.Scheduler.LockDriver {
	case "local":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis url is required for the redis scheduler lock")
		}
	default:
		return fmt.Errorf("unsupported scheduler lock driver: %s", c.Scheduler.LockDriver)
	}
	switch c.Notifications.Driver {
	case "log", "email", "rabbitmq":
	default:
		return fmt.Errorf("unsupported notifications driver: %s", c.Notifications.Driver)
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
