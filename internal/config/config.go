package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// UpstreamConfig points the gateway at the Go-card backend REST API.
type UpstreamConfig struct {
	BaseURL        string
	LoginPath      string
	LogoutPath     string
	MePath         string
	RequestTimeout time.Duration
	RetryMax       int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	// Strategy picks the role-resolution implementation: "token" decodes the
	// bearer JWT locally, "server" asks the upstream identity endpoint.
	Strategy string
	MeTTL    time.Duration
}

type CacheConfig struct {
	StaleTTL time.Duration
}

type WeatherConfig struct {
	BaseURL      string
	DefaultLat   float64
	DefaultLon   float64
	ForecastDays int
	Timeout      time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Upstream         UpstreamConfig
	Redis            RedisConfig
	Session          SessionConfig
	Cache            CacheConfig
	Weather          WeatherConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("GOCARD")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.baseurl is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("upstream.loginpath", "/auth/sign-in")
	v.SetDefault("upstream.logoutpath", "/auth/sign-out")
	v.SetDefault("upstream.mepath", "/auth/me")
	v.SetDefault("upstream.requesttimeout", "10s")
	v.SetDefault("upstream.retrymax", 3)
	v.SetDefault("upstream.retrybasedelay", "1s")
	v.SetDefault("upstream.retrymaxdelay", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.strategy", "token")
	v.SetDefault("session.mettl", "1m")

	v.SetDefault("cache.stalettl", "5m")

	v.SetDefault("weather.baseurl", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.defaultlat", 55.6761)
	v.SetDefault("weather.defaultlon", 12.5683)
	v.SetDefault("weather.forecastdays", 1)
	v.SetDefault("weather.timeout", "8s")
}
