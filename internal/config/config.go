package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers and submission sinks
const (
	SpecSourceFile  = "file"
	SpecSourceMongo = "mongo"
	StoreMongo      = "mongo"
	StoreSQLite     = "sqlite"
	SinkStore       = "store"
	SinkSupabase    = "supabase"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogPretty switches to the human-readable console writer
	LogPretty bool `mapstructure:"LOG_PRETTY"`

	SpecPath   string `mapstructure:"SPEC_PATH"`
	SpecSource string `mapstructure:"SPEC_SOURCE"` // file | mongo
	// ExpectedQuestionnaireID rejects specifications for other questionnaires when set
	ExpectedQuestionnaireID string `mapstructure:"EXPECTED_QUESTIONNAIRE_ID"`

	MongoURI   string        `mapstructure:"MONGO_URI"`
	MongoDB    string        `mapstructure:"MONGO_DB"`
	RedisAddr  string        `mapstructure:"REDIS_ADDR"`
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"` // mongo | sqlite
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	SubmitSink    string `mapstructure:"SUBMIT_SINK"` // store | supabase
	SupabaseURL   string `mapstructure:"SUPABASE_URL"`
	SupabaseKey   string `mapstructure:"SUPABASE_KEY"`
	SupabaseTable string `mapstructure:"SUPABASE_TABLE"`

	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `mapstructure:"ADMIN_TOKEN_TTL"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"PORT", "LOG_LEVEL", "LOG_PRETTY",
	"SPEC_PATH", "SPEC_SOURCE", "EXPECTED_QUESTIONNAIRE_ID",
	"MONGO_URI", "MONGO_DB", "REDIS_ADDR", "SESSION_TTL",
	"STORE_DRIVER", "SQLITE_PATH",
	"SUBMIT_SINK", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_TABLE",
	"JWT_SECRET", "ADMIN_PASSWORD_HASH", "ADMIN_TOKEN_TTL",
	"CORS_ORIGINS",
}

// Load reads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("SPEC_PATH", "questionnaire.json")
	v.SetDefault("SPEC_SOURCE", SpecSourceFile)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "medform")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("SQLITE_PATH", "medform.db")
	v.SetDefault("SUBMIT_SINK", SinkStore)
	v.SetDefault("SUPABASE_TABLE", "responses")
	v.SetDefault("ADMIN_TOKEN_TTL", "1h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	for _, k := range keys {
		v.BindEnv(k)
	}

	// The .env file is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

// Validate checks that the selected drivers have what they need
func (c *Config) Validate() error {
	switch c.SpecSource {
	case SpecSourceFile:
		if c.SpecPath == "" {
			return fmt.Errorf("SPEC_PATH is required when SPEC_SOURCE is \"file\"")
		}
	case SpecSourceMongo:
		if c.ExpectedQuestionnaireID == "" {
			return fmt.Errorf("EXPECTED_QUESTIONNAIRE_ID is required when SPEC_SOURCE is \"mongo\"")
		}
	default:
		return fmt.Errorf("SPEC_SOURCE must be \"file\" or \"mongo\", got %q", c.SpecSource)
	}

	if c.StoreDriver != StoreMongo && c.StoreDriver != StoreSQLite {
		return fmt.Errorf("STORE_DRIVER must be \"mongo\" or \"sqlite\", got %q", c.StoreDriver)
	}

	switch c.SubmitSink {
	case SinkStore:
	case SinkSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required when SUBMIT_SINK is \"supabase\"")
		}
	default:
		return fmt.Errorf("SUBMIT_SINK must be \"store\" or \"supabase\", got %q", c.SubmitSink)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// AdminEnabled reports whether the admin API can issue tokens
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
