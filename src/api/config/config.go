package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	MySQLDSN      string
	PostgresDSN   string
	RedisURL      string

	JWTSecret string
	TokenTTL  time.Duration

	AIProvider     string
	AIModel        string
	AISystemPrompt string
	OpenAIKey      string
	GeminiKey      string
	ClaudeKey      string
	DeepSeekKey    string
	GrokKey        string
	AITimeout      time.Duration
	AIRateLimit    int
	AICacheTTL     time.Duration

	UploadDir     string
	UploadBackend string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3UseSSL      bool

	KafkaBrokers     []string
	KafkaTopic       string
	DiscordToken     string
	DiscordChannelID string
	SiteURL          string

	CORSOrigins     []string
	OTLPEndpoint    string
	OTELServiceName string

	EnableSSL bool
	SSLCert   string
	SSLKey    string
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"ENVIRONMENT":                 "development",
	"LOG_LEVEL":                   "",
	"STORE_DRIVER":                "mongo",
	"MONGO_URI":                   "mongodb://localhost:27017",
	"MONGO_DATABASE":              "crowdfund",
	"MYSQL_DSN":                   "crowdfund:crowdfund@tcp(127.0.0.1:3306)/crowdfund",
	"POSTGRES_DSN":                "host=127.0.0.1 user=crowdfund password=crowdfund dbname=crowdfund sslmode=disable",
	"REDIS_URL":                   "",
	"JWT_SECRET":                  "",
	"TOKEN_TTL":                   "24h",
	"AI_PROVIDER":                 "openai",
	"AI_MODEL":                    "",
	"AI_SYSTEM_PROMPT":            "",
	"OPENAI_API_KEY":              "",
	"GEMINI_API_KEY":              "",
	"CLAUDE_API_KEY":              "",
	"DEEPSEEK_API_KEY":            "",
	"GROK_API_KEY":                "",
	"AI_TIMEOUT":                  "15s",
	"AI_RATE_LIMIT":               30,
	"AI_CACHE_TTL":                "0s",
	"UPLOAD_DIR":                  "uploads",
	"UPLOAD_BACKEND":              "local",
	"S3_ENDPOINT":                 "",
	"S3_ACCESS_KEY":               "",
	"S3_SECRET_KEY":               "",
	"S3_BUCKET":                   "crowdfund-media",
	"S3_USE_SSL":                  false,
	"KAFKA_BROKERS":               "",
	"KAFKA_TOPIC":                 "crowdfund.events",
	"DISCORD_TOKEN":               "",
	"DISCORD_CHANNEL_ID":          "",
	"SITE_URL":                    "http://localhost:3000",
	"CORS_ORIGINS":                "http://localhost:3000,http://localhost:5173",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "crowdfund-api",
	"ENABLE_SSL":                  false,
	"SSL_CERT":                    "",
	"SSL_KEY":                     "",
}

// devJWTSecret is only accepted outside production.
const devJWTSecret = "crowdfund-dev-secret-change-me"

// Load reads defaults, then the optional file named by CONFIG_FILE, then the environment.
func Load() (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:        v.GetString("PORT"),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),
		LogLevel:    v.GetString("LOG_LEVEL"),

		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		MySQLDSN:      v.GetString("MYSQL_DSN"),
		PostgresDSN:   v.GetString("POSTGRES_DSN"),
		RedisURL:      v.GetString("REDIS_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),

		AIProvider:     v.GetString("AI_PROVIDER"),
		AIModel:        v.GetString("AI_MODEL"),
		AISystemPrompt: v.GetString("AI_SYSTEM_PROMPT"),
		OpenAIKey:      v.GetString("OPENAI_API_KEY"),
		GeminiKey:      v.GetString("GEMINI_API_KEY"),
		ClaudeKey:      v.GetString("CLAUDE_API_KEY"),
		DeepSeekKey:    v.GetString("DEEPSEEK_API_KEY"),
		GrokKey:        v.GetString("GROK_API_KEY"),
		AITimeout:      v.GetDuration("AI_TIMEOUT"),
		AIRateLimit:    v.GetInt("AI_RATE_LIMIT"),
		AICacheTTL:     v.GetDuration("AI_CACHE_TTL"),

		UploadDir:     v.GetString("UPLOAD_DIR"),
		UploadBackend: strings.ToLower(v.GetString("UPLOAD_BACKEND")),
		S3Endpoint:    v.GetString("S3_ENDPOINT"),
		S3AccessKey:   v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:   v.GetString("S3_SECRET_KEY"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		S3UseSSL:      v.GetBool("S3_USE_SSL"),

		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		DiscordToken:     v.GetString("DISCORD_TOKEN"),
		DiscordChannelID: v.GetString("DISCORD_CHANNEL_ID"),
		SiteURL:          strings.TrimRight(v.GetString("SITE_URL"), "/"),

		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		OTLPEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName: v.GetString("OTEL_SERVICE_NAME"),

		EnableSSL: v.GetBool("ENABLE_SSL"),
		SSLCert:   v.GetString("SSL_CERT"),
		SSLKey:    v.GetString("SSL_KEY"),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	switch c.StoreDriver {
	case "mongo", "mysql", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.UploadBackend {
	case "local", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend))
	}
	if c.UploadBackend == "s3" && c.S3Endpoint == "" {
		errs = append(errs, errors.New("S3_ENDPOINT is required for the s3 upload backend"))
	}
	if c.EnableSSL && (c.SSLCert == "" || c.SSLKey == "") {
		errs = append(errs, errors.New("SSL_CERT and SSL_KEY are required when ENABLE_SSL is set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
