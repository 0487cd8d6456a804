// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Server    ServerConfig              `mapstructure:"server"`
	Provider  ProviderConfig            `mapstructure:"provider"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Board     BoardConfig               `mapstructure:"board"`
	Photo     PhotoConfig               `mapstructure:"photo"`
	Templates TemplateConfig            `mapstructure:"templates"`
	Locations map[string]LocationConfig `mapstructure:"locations"`
	Chat      ChatConfig                `mapstructure:"chat"`
	Dedup     DedupConfig               `mapstructure:"dedup"`
	Logging   LoggingConfig             `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// ProviderConfig holds the check-in provider webhook settings.
type ProviderConfig struct {
	SharedSecret string `mapstructure:"shared_secret"`
}

// StorageConfig holds the object-storage settings for photo archival.
type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	AccessKeyID   string `mapstructure:"access_key_id"`
	SecretKey     string `mapstructure:"secret_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// BoardConfig holds the community-board credentials and target.
type BoardConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	AuthURL      string `mapstructure:"auth_url"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Board        string `mapstructure:"board"`
	UserAgent    string `mapstructure:"user_agent"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// PhotoConfig controls photo retrieval and the degrade policy when the
// source photo cannot be fetched.
type PhotoConfig struct {
	DefaultURL   string `mapstructure:"default_url"`
	OnFailure    string `mapstructure:"on_failure"` // default_image | text_post
	FetchTimeout int    `mapstructure:"fetch_timeout"`
}

// Degrade policies for PhotoConfig.OnFailure.
const (
	PhotoFailureDefaultImage = "default_image"
	PhotoFailureTextPost     = "text_post"
)

type TemplateConfig struct {
	Title      string `mapstructure:"title"`
	Chat       string `mapstructure:"chat"`
	DateLayout string `mapstructure:"date_layout"`
}

type LocationConfig struct {
	DisplayName   string `mapstructure:"display_name"`
	Timezone      string `mapstructure:"timezone"`
	ArchivePrefix string `mapstructure:"archive_prefix"`
}

// ChatConfig enables the optional chat notification. At most one transport
// should be configured; both empty disables chat entirely.
type ChatConfig struct {
	WebhookURL  string `mapstructure:"webhook_url"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
	SNSRegion   string `mapstructure:"sns_region"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// Enabled reports whether any chat transport is configured.
func (c ChatConfig) Enabled() bool {
	return c.WebhookURL != "" || c.SNSTopicARN != ""
}

// DedupConfig enables the optional redelivery suppression cache.
type DedupConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
