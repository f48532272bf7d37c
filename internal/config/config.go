package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	APIURL     string        `mapstructure:"api_url"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	BacklogLimit   int           `mapstructure:"backlog_limit"`
	ActivityWindow time.Duration `mapstructure:"activity_window"`
	Denylist       []string      `mapstructure:"denylist"`

	PostLimit    int           `mapstructure:"post_limit"`
	PostInterval time.Duration `mapstructure:"post_interval"`

	MediaPath    string        `mapstructure:"media_path"`
	MediaRoom    string        `mapstructure:"media_room"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("api_url", "http://localhost:3001")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("backlog_limit", 1000)
	v.SetDefault("activity_window", "30s")
	v.SetDefault("denylist", []string{"fuck", "shit"})
	v.SetDefault("post_limit", 5)
	v.SetDefault("post_interval", "10s")
	v.SetDefault("media_room", "live")
	v.SetDefault("poll_interval", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | API: %s\n", cfg.Mode, cfg.Port, cfg.APIURL)
	return &cfg, nil
}
