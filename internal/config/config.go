package config

import (
	"flag"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env-default:""`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env-default:"10"`
	MaxIdleConns int    `yaml:"max_idle_conns" env-default:"5"`
}

type StorageConfig struct {
	Dir     string `yaml:"dir" env-default:"uploads"`
	BaseURL string `yaml:"base_url" env-default:"/uploads"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "host=localhost user=postgres password=postgres dbname=gatherly port=5432 sslmode=disable"
	}
}
