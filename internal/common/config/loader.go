// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDER_SHARED_SECRET
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the likely working directories before falling
// back to the system environment.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env fallbacks for secrets that are
// commonly provisioned outside the config file.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Provider.SharedSecret == "" {
		if val := os.Getenv("PROVIDER_SHARED_SECRET"); val != "" {
			cfg.Provider.SharedSecret = val
		}
	}

	if cfg.Storage.AccessKeyID == "" {
		if val := os.Getenv("AWS_ACCESS_KEY_ID"); val != "" {
			cfg.Storage.AccessKeyID = val
		}
	}
	if cfg.Storage.SecretKey == "" {
		if val := os.Getenv("AWS_SECRET_ACCESS_KEY"); val != "" {
			cfg.Storage.SecretKey = val
		}
	}

	if cfg.Board.Password == "" {
		if val := os.Getenv("BOARD_PASSWORD"); val != "" {
			cfg.Board.Password = val
		}
	}
	if cfg.Board.ClientSecret == "" {
		if val := os.Getenv("BOARD_CLIENT_SECRET"); val != "" {
			cfg.Board.ClientSecret = val
		}
	}

	if cfg.Chat.WebhookURL == "" {
		if val := os.Getenv("CHAT_WEBHOOK_URL"); val != "" {
			cfg.Chat.WebhookURL = val
		}
	}

	if cfg.Dedup.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Dedup.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Storage.Timeout == 0 {
		cfg.Storage.Timeout = 15000
	}
	if cfg.Board.Timeout == 0 {
		cfg.Board.Timeout = 30000
	}
	if cfg.Board.BaseURL == "" {
		cfg.Board.BaseURL = "https://oauth.reddit.com"
	}
	if cfg.Board.AuthURL == "" {
		cfg.Board.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if cfg.Board.UserAgent == "" {
		cfg.Board.UserAgent = "visitor-relay/1.0"
	}

	if cfg.Photo.OnFailure == "" {
		cfg.Photo.OnFailure = PhotoFailureDefaultImage
	}
	if cfg.Photo.FetchTimeout == 0 {
		cfg.Photo.FetchTimeout = 10000
	}

	if cfg.Chat.Timeout == 0 {
		cfg.Chat.Timeout = 10000
	}

	if cfg.Dedup.TTL == 0 {
		cfg.Dedup.TTL = 3600
	}

	if cfg.Templates.Title == "" {
		cfg.Templates.Title = "{visitor_name} signed in at {location} on {date}"
	}
	if cfg.Templates.Chat == "" {
		cfg.Templates.Chat = "{visitor_name} just signed in at {location}: {link}"
	}
	if cfg.Templates.DateLayout == "" {
		cfg.Templates.DateLayout = "Monday, January 2 at 3:04 PM"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Archive prefix falls back to the location code itself.
	for code, loc := range cfg.Locations {
		if loc.ArchivePrefix == "" {
			loc.ArchivePrefix = code
		}
		cfg.Locations[code] = loc
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Provider.SharedSecret == "" {
		return fmt.Errorf("provider.shared_secret is required")
	}

	if cfg.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if cfg.Storage.Region == "" {
		return fmt.Errorf("storage.region is required")
	}

	if cfg.Board.Username == "" || cfg.Board.Password == "" {
		return fmt.Errorf("board.username and board.password are required")
	}
	if cfg.Board.Board == "" {
		return fmt.Errorf("board.board is required")
	}

	if len(cfg.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	for code, loc := range cfg.Locations {
		if loc.Timezone == "" {
			return fmt.Errorf("locations.%s.timezone is required", code)
		}
		if loc.DisplayName == "" {
			return fmt.Errorf("locations.%s.display_name is required", code)
		}
	}

	switch cfg.Photo.OnFailure {
	case PhotoFailureDefaultImage, PhotoFailureTextPost:
	default:
		return fmt.Errorf("photo.on_failure must be %q or %q", PhotoFailureDefaultImage, PhotoFailureTextPost)
	}
	if cfg.Photo.OnFailure == PhotoFailureDefaultImage && cfg.Photo.DefaultURL == "" {
		return fmt.Errorf("photo.default_url is required when photo.on_failure is %q", PhotoFailureDefaultImage)
	}

	if cfg.Dedup.Enabled && cfg.Dedup.Address == "" {
		return fmt.Errorf("dedup.address is required when dedup is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
