package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Media    MediaConfig    `yaml:"media"`
	Creative CreativeConfig `yaml:"creative"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SUBDECK_SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"SUBDECK_SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SUBDECK_SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SUBDECK_SERVER_WRITE_TIMEOUT"    env-default:"10m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SUBDECK_SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SUBDECK_SERVER_MAX_BODY_BYTES"   env-default:"524288000"`
}

// MediaConfig holds ffmpeg and working directory settings.
type MediaConfig struct {
	TempDir       string `yaml:"temp_dir"       env:"SUBDECK_TEMP_DIR"`
	FFmpegPath    string `yaml:"ffmpeg_path"    env:"SUBDECK_FFMPEG_PATH"`
	FFprobePath   string `yaml:"ffprobe_path"   env:"SUBDECK_FFPROBE_PATH"`
	AllowDownload bool   `yaml:"allow_download" env:"SUBDECK_FFMPEG_DOWNLOAD" env-default:"true"`
	FontFile      string `yaml:"font_file"      env:"SUBDECK_FONT_FILE"`
	Preset        string `yaml:"preset"         env:"SUBDECK_PRESET"          env-default:"fast"`
	CRF           int    `yaml:"crf"            env:"SUBDECK_CRF"             env-default:"23"`
}

// CreativeConfig selects the phrase generator and scene analyzer.
type CreativeConfig struct {
	Provider        string `yaml:"provider"         env:"SUBDECK_CREATIVE_PROVIDER" env-default:"template"`
	Model           string `yaml:"model"            env:"SUBDECK_CREATIVE_MODEL"`
	Analyzer        string `yaml:"analyzer"         env:"SUBDECK_ANALYZER"          env-default:"mock"`
	GeminiAPIKey    string `yaml:"gemini_api_key"    env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `yaml:"openai_api_key"    env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	OllamaURL       string `yaml:"ollama_url"       env:"OLLAMA_URL"                env-default:"http://localhost:11434"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"SUBDECK_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"SUBDECK_LOG_FORMAT" env-default:"console"`
}

// APIKey returns the configured key for a provider name.
func (c CreativeConfig) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return ""
	}
}
