package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/web/internal/domain"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cart     CartConfig     `mapstructure:"cart"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig describes the catalog and session backend
type BackendConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`

	CategoriesPath    string `mapstructure:"categories_path"`
	SubcategoriesPath string `mapstructure:"subcategories_path"`
	ProductTypesPath  string `mapstructure:"product_types_path"`
	ProductsPath      string `mapstructure:"products_path"`
}

func (b BackendConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// CatalogConfig selects where the catalog comes from and which categories are navigable
type CatalogConfig struct {
	Source     string                   `mapstructure:"source"` // http or postgres
	Categories []domain.LandingCategory `mapstructure:"categories"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CartConfig controls durable cart storage and the cross-context change bus
type CartConfig struct {
	Driver       string `mapstructure:"driver"` // redis or memory
	StorageKey   string `mapstructure:"storage_key"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	Channel      string `mapstructure:"channel"`
	PersistEmpty bool   `mapstructure:"persist_empty"`
	MirrorRemote bool   `mapstructure:"mirror_remote"`
}

// AuthConfig holds the session endpoint and the cookie used to call it
type AuthConfig struct {
	SessionPath  string `mapstructure:"session_path"`
	LoginPath    string `mapstructure:"login_path"`
	RegisterPath string `mapstructure:"register_path"`
	LogoutPath   string `mapstructure:"logout_path"`
	CartPath     string `mapstructure:"cart_path"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieValue  string `mapstructure:"cookie_value"`
	CheckTimeout int    `mapstructure:"check_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load loads configuration from an optional YAML file with environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".")
}

// LoadFrom reads config.yaml from dir into v. A missing file is not an error.
func LoadFrom(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the application cannot start with
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "http", "postgres":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	switch c.Cart.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown cart driver %q", c.Cart.Driver)
	}
	if c.Cart.StorageKey == "" {
		return errors.New("cart.storage_key must not be empty")
	}
	for _, lc := range c.Catalog.Categories {
		if lc.ID == "" || !strings.HasPrefix(lc.Path, "/") {
			return fmt.Errorf("invalid landing category %+v", lc)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("backend.base_url", "http://localhost:8123")
	v.SetDefault("backend.timeout", 30)
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.max_requests_per_second", 20)
	v.SetDefault("backend.categories_path", "/categories")
	v.SetDefault("backend.subcategories_path", "/subcategories")
	v.SetDefault("backend.product_types_path", "/productTypes")
	v.SetDefault("backend.products_path", "/products")

	v.SetDefault("catalog.source", "http")
	v.SetDefault("catalog.categories", []map[string]any{
		{"id": "6405fa546fb18bc74bd3d9cb", "path": "/barbati", "featured": []string{"Blugi", "Hanorace"}},
		{"id": "640601ffbab3fa741b0ade07", "path": "/femei", "featured": []string{"Fuste", "Genti"}},
	})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)

	v.SetDefault("cart.driver", "redis")
	v.SetDefault("cart.storage_key", domain.CartStorageKey)
	v.SetDefault("cart.key_prefix", "storefront:storage:")
	v.SetDefault("cart.channel", "storefront:storage:events")
	v.SetDefault("cart.persist_empty", false)
	v.SetDefault("cart.mirror_remote", false)

	v.SetDefault("auth.session_path", "/user/auth")
	v.SetDefault("auth.login_path", "/user/login")
	v.SetDefault("auth.register_path", "/user/register")
	v.SetDefault("auth.logout_path", "/user/logout")
	v.SetDefault("auth.cart_path", "/user/updateCart")
	v.SetDefault("auth.cookie_name", "")
	v.SetDefault("auth.cookie_value", "")
	v.SetDefault("auth.check_timeout", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
