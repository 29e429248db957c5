package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends for posts.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects where posts live. An empty Backend is resolved by
// Resolve: mongo when a URI is set, otherwise memory.
type StoreConfig struct {
	Backend     string
	RedisPrefix string
}

type MongoDBConfig struct {
	URI               string
	Database          string
	Timeout           time.Duration
	PostsCollection   string
	HistoryCollection string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// AuthConfig controls who may move posts through review.
type AuthConfig struct {
	// RequireReviewer guards review and approve routes with bearer auth.
	RequireReviewer bool
	// AllowInsecureToken accepts unsigned tokens; integration tests only.
	AllowInsecureToken bool
	// DevTokens enables POST /auth/token to mint HS256 tokens.
	DevTokens bool
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5010")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("POST_STORE", "")
	viper.SetDefault("POST_REDIS_PREFIX", "post:")
	viper.SetDefault("MONGODB_DATABASE", "postflow")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("MONGODB_POSTS_COLLECTION", "posts")
	viper.SetDefault("MONGODB_HISTORY_COLLECTION", "post_history")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("AUTH_REQUIRE_REVIEWER", false)
	viper.SetDefault("ALLOW_INSECURE_TOKEN", false)
	viper.SetDefault("AUTH_DEV_TOKENS", false)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(strings.TrimSpace(viper.GetString("POST_STORE"))),
			RedisPrefix: viper.GetString("POST_REDIS_PREFIX"),
		},
		MongoDB: MongoDBConfig{
			URI:               viper.GetString("MONGODB_URI"),
			Database:          viper.GetString("MONGODB_DATABASE"),
			Timeout:           time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
			PostsCollection:   viper.GetString("MONGODB_POSTS_COLLECTION"),
			HistoryCollection: viper.GetString("MONGODB_HISTORY_COLLECTION"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         viper.GetString("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Auth: AuthConfig{
			RequireReviewer:    viper.GetBool("AUTH_REQUIRE_REVIEWER"),
			AllowInsecureToken: viper.GetBool("ALLOW_INSECURE_TOKEN"),
			DevTokens:          viper.GetBool("AUTH_DEV_TOKENS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve fills the store backend and checks that it can be served.
func (c *Config) resolve() error {
	if c.Store.Backend == "" {
		c.Store.Backend = StoreMemory
		if c.MongoDB.URI != "" {
			c.Store.Backend = StoreMongo
		}
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("POST_STORE=mongo requires MONGODB_URI")
		}
	case StoreRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("POST_STORE=redis requires REDIS_HOST")
		}
	default:
		return fmt.Errorf("unknown POST_STORE %q (want memory, mongo or redis)", c.Store.Backend)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RPS)
	}
	if c.Auth.RequireReviewer && c.JWT.Secret == "" && c.Keycloak.URL == "" && !c.Auth.AllowInsecureToken {
		return fmt.Errorf("AUTH_REQUIRE_REVIEWER needs JWT_SECRET, KEYCLOAK_URL or ALLOW_INSECURE_TOKEN")
	}
	return nil
}
