package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	authConfig "github.com/iurnickita/printshop/internal/auth/config"
	handlerConfig "github.com/iurnickita/printshop/internal/handler/config"
	loggerConfig "github.com/iurnickita/printshop/internal/logger/config"
	serviceConfig "github.com/iurnickita/printshop/internal/service/config"
	storeConfig "github.com/iurnickita/printshop/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Service serviceConfig.Config
	Store   storeConfig.Config
	Logger  loggerConfig.Config
	Auth    authConfig.Config
}

func GetConfig() (Config, error) {
	// .env не обязателен
	_ = godotenv.Load()
	return load(os.Args[0], os.Args[1:])
}

// load applies defaults, then command-line flags, then environment variables.
func load(name string, args []string) (Config, error) {
	cfg := Config{
		Handler: handlerConfig.Config{ServerAddr: "localhost:8080"},
		Logger:  loggerConfig.Config{LogLevel: "info"},
		Auth:    authConfig.Config{SecretKey: "printshop-secret", TokenExp: 12 * time.Hour},
		Service: serviceConfig.Config{
			ReportTTL: time.Minute,
			Shop: serviceConfig.Shop{
				Name:    "Nala Media",
				Address: "Jl. Prof. Moh. Yamin, Cerbonan, Karanganyar",
				Phone:   "0812-3456-7890",
			},
		},
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Handler.ServerAddr, "a", cfg.Handler.ServerAddr, "address and port to run server")
	fs.StringVar(&cfg.Store.DBDsn, "d", cfg.Store.DBDsn, "database connection string")
	fs.StringVar(&cfg.Logger.LogLevel, "l", cfg.Logger.LogLevel, "log level")
	fs.StringVar(&cfg.Service.MessengerAddr, "m", cfg.Service.MessengerAddr, "messaging gateway address")
	fs.StringVar(&cfg.Service.RedisAddr, "r", cfg.Service.RedisAddr, "redis address for the report cache")
	fs.DurationVar(&cfg.Service.ReportTTL, "t", cfg.Service.ReportTTL, "report cache ttl")
	fs.StringVar(&cfg.Auth.SecretKey, "s", cfg.Auth.SecretKey, "token signing key")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	setString(k, "RUN_ADDRESS", &cfg.Handler.ServerAddr)
	setString(k, "DATABASE_URI", &cfg.Store.DBDsn)
	setString(k, "LOG_LEVEL", &cfg.Logger.LogLevel)
	setString(k, "MESSENGER_ADDRESS", &cfg.Service.MessengerAddr)
	setString(k, "REDIS_ADDRESS", &cfg.Service.RedisAddr)
	setString(k, "JWT_SECRET", &cfg.Auth.SecretKey)
	setString(k, "SHOP_NAME", &cfg.Service.Shop.Name)
	setString(k, "SHOP_ADDRESS", &cfg.Service.Shop.Address)
	setString(k, "SHOP_PHONE", &cfg.Service.Shop.Phone)
	if k.Exists("REPORT_CACHE_TTL") {
		ttl, err := time.ParseDuration(k.String("REPORT_CACHE_TTL"))
		if err != nil {
			return Config{}, fmt.Errorf("REPORT_CACHE_TTL: %w", err)
		}
		cfg.Service.ReportTTL = ttl
	}
	if k.Exists("TOKEN_TTL") {
		ttl, err := time.ParseDuration(k.String("TOKEN_TTL"))
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenExp = ttl
	}

	return cfg, nil
}

func setString(k *koanf.Koanf, key string, dst *string) {
	if v := k.String(key); v != "" {
		*dst = v
	}
}
