package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	TokenTTLMinutes int      `yaml:"token_ttl_minutes"`
	JwtIssuer       string   `yaml:"jwt_issuer"`
	JwtAudience     string   `yaml:"jwt_audience"`
	LogLevel        string   `yaml:"log_level"`
	LogJSON         bool     `yaml:"log_json"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
	Pg     Pg     `yaml:"pg"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.TokenTTLMinutes) * time.Minute
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder and panics on
// missing required fields. Config problems should stop the service at startup,
// not surface as runtime 500s.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.mustValidate()
	return cfg
}

func (c *Config) mustValidate() {
	if c.Public.TokenTTLMinutes <= 0 {
		panic("config: token_ttl_minutes is required")
	}
	if c.Public.JwtIssuer == "" {
		panic("config: jwt_issuer is required")
	}
	if c.Public.JwtAudience == "" {
		panic("config: jwt_audience is required")
	}
	if c.Private.JwtKey == "" {
		panic("config: jwt_key is required")
	}
	if c.Private.Pg.Host == "" || c.Private.Pg.Dbname == "" {
		panic("config: pg connection settings are required")
	}
}
