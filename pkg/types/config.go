package types

import "time"

// HTTPConfig holds shared HTTP settings used by commands that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "aikokb/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// KnowledgeBaseConfig holds settings for opening, building, and querying
// the knowledge base artifact.
type KnowledgeBaseConfig struct {
	// ArtifactPath is the knowledge base file (default "Aikoinfinity.ptl").
	ArtifactPath string `json:"artifact" yaml:"artifact" mapstructure:"artifact"`

	// SourceDir is the build input (contains manifest.yaml, topics/).
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// MaxResults is the result count used when a search asks for k <= 0 (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// FetchConfig holds settings for downloading a published artifact.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the location of the published artifact.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Token is an optional bearer token. It is normally loaded from the
	// secrets directory (kb-token) rather than the config file.
	Token string `json:"-" yaml:"-" mapstructure:"-"`

	// MaxRetries is the number of retry attempts on 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Development switches to human-readable console output with caller info.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all settings read from aikokb.yaml, the environment, and flags.
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:",inline" mapstructure:",squash"`
	Fetch         FetchConfig         `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Log           LogConfig           `json:"log" yaml:"log" mapstructure:"log"`

	// SecretsDir is the directory of plain-text secret files (default ".secrets").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}
