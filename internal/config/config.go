package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/evermart/storefront/internal/log"
)

type Application struct {
	Env     string `mapstructure:"env"      json:"env"`
	LogFile string `mapstructure:"log_file" json:"log_file"`
}

type Api struct {
	BaseUrl        string `mapstructure:"base_url"        json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

type Storage struct {
	Backend string `mapstructure:"backend" json:"backend"`
	Path    string `mapstructure:"path"    json:"path"`
}

type Cache struct {
	TtlSeconds int `mapstructure:"ttl_seconds" json:"ttl_seconds"`
}

type Redis struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"password"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Api         `mapstructure:"api"         json:"api"`
	Storage     `mapstructure:"storage"     json:"storage"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Redis       `mapstructure:"redis"       json:"redis"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	cfg := Config{}
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.AddConfigPath("$HOME/.config/storefront")
		viper.SetConfigType("yaml")
		viper.SetEnvPrefix("storefront")
		viper.AutomaticEnv()

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
