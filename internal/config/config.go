package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Connectors ConnectorsConfig `mapstructure:"connectors"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type JobsConfig struct {
	PriceUpdateInterval time.Duration `mapstructure:"price_update_interval"`
	PriceAlertInterval  time.Duration `mapstructure:"price_alert_interval"`
	ProductDelay        time.Duration `mapstructure:"product_delay"`
	RetailerDelay       time.Duration `mapstructure:"retailer_delay"`
}

type ConnectorsConfig struct {
	UserAgent string          `mapstructure:"user_agent"`
	Amazon    AmazonConfig    `mapstructure:"amazon"`
	Walmart   WalmartConfig   `mapstructure:"walmart"`
	Costco    RetailerAPIConf `mapstructure:"costco"`
}

type AmazonConfig struct {
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	PartnerTag string `mapstructure:"partner_tag"`
}

type WalmartConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RetailerAPIConf struct {
	RateLimit int `mapstructure:"rate_limit"` // requests per minute
}

type NotifyConfig struct {
	Email EmailConfig `mapstructure:"email"`
	Push  PushConfig  `mapstructure:"push"`
}

type EmailConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	From    string `mapstructure:"from"`
}

type PushConfig struct {
	ServerKey string `mapstructure:"server_key"`
	BaseURL   string `mapstructure:"base_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/pricewatch.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pricewatch")
	v.SetDefault("database.name", "pricewatch")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("jobs.price_update_interval", 24*time.Hour)
	v.SetDefault("jobs.price_alert_interval", time.Hour)
	v.SetDefault("jobs.product_delay", time.Second)
	v.SetDefault("jobs.retailer_delay", 5*time.Second)
	v.SetDefault("connectors.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("connectors.costco.rate_limit", 10)
	v.SetDefault("notify.email.base_url", "https://api.resend.com")
	v.SetDefault("notify.email.from", "alerts@chaza.com")
	v.SetDefault("notify.push.base_url", "https://fcm.googleapis.com")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("connectors.amazon.access_key", "AMAZON_ACCESS_KEY")
	v.BindEnv("connectors.amazon.secret_key", "AMAZON_SECRET_KEY")
	v.BindEnv("connectors.amazon.partner_tag", "AMAZON_PARTNER_TAG")
	v.BindEnv("connectors.walmart.api_key", "WALMART_API_KEY")
	v.BindEnv("notify.email.api_key", "EMAIL_API_KEY")
	v.BindEnv("notify.push.server_key", "PUSH_SERVER_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
