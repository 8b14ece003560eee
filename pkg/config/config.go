package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	_ "github.com/spf13/viper/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	configHolder atomic.Value
	backend      = "consul"
	backendAddr  = "127.0.0.1:8500"
	backendPath  = "development" // e.g., app/<env>/<service_name>
	configType   = "yaml"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME" validate:"required"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH" validate:"required_if=Enable true"`
		KeyPath  string `mapstructure:"KEY_PATH" validate:"required_if=Enable true"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr     string `mapstructure:"ADDR"`
		Protocol string `mapstructure:"PROTOCOL" validate:"omitempty,oneof=grpc http"`
		Insecure bool   `mapstructure:"INSECURE"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR" validate:"required"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Grpc struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"GRPC_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE" validate:"oneof=postgres mysql sqlite"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME" validate:"required"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		AutoMigrate    bool   `mapstructure:"AUTO_MIGRATE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR" validate:"required"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	AccessControl struct {
		Model  string `mapstructure:"MODEL"`
		Policy string `mapstructure:"POLICY"`
	} `mapstructure:"ACCESS_CONTROL"`
	Flagsmith struct {
		Addr   string `mapstructure:"ADDR"`
		ApiKey string `mapstructure:"API_KEY"`
	} `mapstructure:"FLAGSMITH"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
	SendGrid struct {
		ApiKey  string `mapstructure:"API_KEY"`
		BaseURL string `mapstructure:"BASE_URL" validate:"omitempty,url"`
	} `mapstructure:"SENDGRID"`
	Mail struct {
		FromEmail string `mapstructure:"FROM_EMAIL" validate:"required,email"`
		PublicURL string `mapstructure:"PUBLIC_URL" validate:"required,url"`
	} `mapstructure:"MAIL"`
	Admin struct {
		ApiKey        string `mapstructure:"API_KEY"`
		WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	} `mapstructure:"ADMIN"`
	Schedule struct {
		Enable  bool `mapstructure:"ENABLE"`
		Weekday int  `mapstructure:"WEEKDAY" validate:"gte=0,lte=6"`
		Hour    int  `mapstructure:"HOUR" validate:"gte=0,lte=23"`
	} `mapstructure:"SCHEDULE"`
	Leaderboard struct {
		CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
	} `mapstructure:"LEADERBOARD"`
	IOTimeout time.Duration `mapstructure:"IO_TIMEOUT"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))
var RemoteModule = fx.Module("remote.config", fx.Provide(LoadRemote))

// Select picks the remote provider when REMOTE_CONFIG_PROVIDER is set.
func Select() fx.Option {
	if _, ok := os.LookupEnv("REMOTE_CONFIG_PROVIDER"); ok {
		return RemoteModule
	}
	return Module
}

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_NAME", "locallift")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("GRPC_SERVER.ADDR", "9090")
	v.SetDefault("OTEL.PROTOCOL", "http")
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.DBNAME", "locallift")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("SENDGRID.BASE_URL", "https://api.sendgrid.com")
	v.SetDefault("MAIL.FROM_EMAIL", "notifications@locallift.com")
	v.SetDefault("MAIL.PUBLIC_URL", "https://locallift.com")
	v.SetDefault("SCHEDULE.ENABLE", true)
	v.SetDefault("SCHEDULE.WEEKDAY", int(time.Monday))
	v.SetDefault("SCHEDULE.HOUR", 9)
	v.SetDefault("LEADERBOARD.CACHE_TTL", 5*time.Minute)
	v.SetDefault("IO_TIMEOUT", 10*time.Second)

	// Flat env names used by the hosting platform.
	_ = v.BindEnv("SENDGRID.API_KEY", "SENDGRID_API_KEY")
	_ = v.BindEnv("MAIL.FROM_EMAIL", "FROM_EMAIL")
	_ = v.BindEnv("MAIL.PUBLIC_URL", "PUBLIC_URL")
	_ = v.BindEnv("ADMIN.API_KEY", "ADMIN_API_KEY")
	_ = v.BindEnv("ADMIN.WEBHOOK_SECRET", "WEBHOOK_SECRET")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func LoadConfig(p Params) *Config {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType(configType)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Info("no config file found, using defaults and environment")
	}

	cfg, err := decode(v)
	if err != nil {
		zap.L().Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	if p.Vault != nil {
		if err := applySecrets(context.Background(), p.Vault, cfg); err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			os.Exit(1)
		}
	}

	return cfg
}

func LoadRemote(p Params) *Config {
	if p.Vault == nil {
		zap.L().Error("vault can't provide")
		os.Exit(1)
	}

	if v, ok := os.LookupEnv("REMOTE_CONFIG_PROVIDER"); ok {
		backend = v
	}

	if v, ok := os.LookupEnv("REMOTE_CONFIG_ADDR"); ok {
		backendAddr = v
	}

	if v, ok := os.LookupEnv("REMOTE_CONFIG_PATH"); ok {
		backendPath = v
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.AddRemoteProvider(backend, backendAddr, backendPath); err != nil {
		os.Exit(1)
	}

	if err := v.ReadRemoteConfig(); err != nil {
		os.Exit(1)
	}

	cfg, err := decode(v)
	if err != nil {
		zap.L().Error("invalid remote configuration", zap.Error(err))
		os.Exit(1)
	}

	if err := applySecrets(context.Background(), p.Vault, cfg); err != nil {
		zap.L().Error("failed get secret from vault", zap.Error(err))
		os.Exit(1)
	}
	configHolder.Store(cfg)

	go func() {
		for {
			time.Sleep(time.Second * 5)

			if err := v.WatchRemoteConfig(); err != nil {
				zap.L().Error("unable to read remote config", zap.Error(err))
				continue
			}

			newcfg, err := decode(v)
			if err != nil {
				zap.L().Error("ignoring invalid remote config", zap.Error(err))
				continue
			}
			newcfg.Database.User = cfg.Database.User
			newcfg.Database.Password = cfg.Database.Password
			newcfg.Redis.Password = cfg.Redis.Password
			newcfg.SendGrid.ApiKey = cfg.SendGrid.ApiKey
			newcfg.Admin = cfg.Admin
			newcfg.Flagsmith.ApiKey = cfg.Flagsmith.ApiKey
			configHolder.Store(newcfg)
		}
	}()

	return cfg
}

// Current returns the latest remotely watched config, or nil when remote config is not in use.
func Current() *Config {
	if cfg, ok := configHolder.Load().(*Config); ok {
		return cfg
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applySecrets(ctx context.Context, client *vault.Client, cfg *Config) error {
	zap.L().Info("Starting Get Secrets", zap.String("path", cfg.AppEnv))
	secret, err := client.Secrets.KvV2Read(ctx, cfg.AppEnv, vault.WithMountPath("secret"))
	if err != nil {
		return err
	}
	zap.L().Info("Success Get Secret")

	get := func(key, fallback string) string {
		if val, ok := secret.Data.Data[key].(string); ok && val != "" {
			return val
		}
		return fallback
	}

	cfg.Database.User = get("postgres_user", cfg.Database.User)
	cfg.Database.Password = get("postgres_password", cfg.Database.Password)
	cfg.Redis.Password = get("redis_password", cfg.Redis.Password)
	cfg.SendGrid.ApiKey = get("sendgrid_api_key", cfg.SendGrid.ApiKey)
	cfg.Admin.ApiKey = get("admin_api_key", cfg.Admin.ApiKey)
	cfg.Admin.WebhookSecret = get("webhook_secret", cfg.Admin.WebhookSecret)
	cfg.Flagsmith.ApiKey = get("flagsmith_api_key", cfg.Flagsmith.ApiKey)
	return nil
}
