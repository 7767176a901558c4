package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultServerAddress   = ":8000"
	DefaultProxyURL        = "https://aiproxy.sanand.workers.dev/openai/v1/chat/completions"
	DefaultModel           = "gpt-4o-mini"
	DefaultUpstreamTimeout = 60 * time.Second
	DefaultMaxUploadBytes  = 10 << 20 // 10 MB
	DefaultQuestionCap     = 2500
	DefaultContextCap      = 3000
	DefaultArtifactDir     = "processed_images"
	DefaultCacheSize       = 512
	DefaultCacheTTL        = time.Hour
	DefaultDeployTimeout   = 5 * time.Minute

	ProviderAIProxy = "aiproxy"

	PromptModeMinimal        = "minimal"
	PromptModeChainOfThought = "chain-of-thought"
)

// Config represents runtime configuration for the service. It is built once
// by Load and treated as read-only afterwards.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	LLM         LLMConfig                 `json:"llm"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Prompt      PromptConfig              `json:"prompt"`
	Extraction  ExtractionConfig          `json:"extraction"`
	Artifacts   ArtifactConfig            `json:"artifacts"`
	Cache       CacheConfig               `json:"cache"`
	Redis       RedisConfig               `json:"redis"`
	GitHub      GitHubConfig              `json:"github"`
	Deploy      DeployConfig              `json:"deploy"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// UpstreamTimeout is expressed in seconds.
	UpstreamTimeout int   `json:"upstream_timeout"`
	MaxUploadBytes  int64 `json:"max_upload_bytes"`
}

// LLMConfig selects the upstream used for answers. Provider "aiproxy" talks to
// an OpenAI-compatible chat completion endpoint directly; any other name must
// exist in Providers and is served through an eino chat model.
type LLMConfig struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Token       string  `json:"token"`
	Temperature float32 `json:"temperature"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type PromptConfig struct {
	Mode         string `json:"mode"`
	SystemPrompt string `json:"system_prompt"`
	QuestionCap  int    `json:"question_cap"`
	ContextCap   int    `json:"context_cap"`
}

type ExtractionConfig struct {
	// Strict rejects unknown file types instead of decoding them as text.
	Strict     *bool `json:"strict"`
	ContextCap int   `json:"context_cap"`
}

type ArtifactConfig struct {
	Dir string `json:"dir"`
	// Retention and CleanInterval are expressed in minutes. A zero retention
	// keeps processed images forever.
	Retention     int      `json:"retention"`
	CleanInterval int      `json:"clean_interval"`
	S3            S3Config `json:"s3"`
}

type S3Config struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

type CacheConfig struct {
	// Backend is one of "", "memory" or "redis". Empty disables answer caching.
	Backend string `json:"backend"`
	Size    int    `json:"size"`
	// TTL is expressed in minutes.
	TTL int `json:"ttl"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GitHubConfig struct {
	Enabled *bool  `json:"enabled"`
	Token   string `json:"token"`
	User    string `json:"user"`
	BaseURL string `json:"base_url"`
}

type DeployConfig struct {
	Enabled bool     `json:"enabled"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	WorkDir string   `json:"work_dir"`
	// Timeout is expressed in seconds.
	Timeout int `json:"timeout"`
}

// Load reads configuration from the provided path (defaults to config.json),
// layers environment variables on top and validates the result. A missing
// file is not an error: the service is usually configured from the
// environment alone.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = "config.json"
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := envValue("AIPROXY_TOKEN"); v != "" {
		c.LLM.Token = v
	}
	if v := envValue("AIPROXY_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := envValue("DOCQA_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := envValue("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := envValue("GITHUB_USER"); v != "" {
		c.GitHub.User = v
	}
	if v := envValue("DOCQA_PROMPT_MODE"); v != "" {
		c.Prompt.Mode = v
	}
	if v := firstNonEmpty(envValue("DOCQA_ADDR"), envValue("PORT")); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.BasicConfig.ServerAddress = v
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if c.BasicConfig.UpstreamTimeout <= 0 {
		c.BasicConfig.UpstreamTimeout = int(DefaultUpstreamTimeout / time.Second)
	}
	if c.BasicConfig.MaxUploadBytes <= 0 {
		c.BasicConfig.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderAIProxy
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderAIProxy {
		c.LLM.BaseURL = DefaultProxyURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.Prompt.Mode == "" {
		c.Prompt.Mode = PromptModeChainOfThought
	}
	if c.Prompt.QuestionCap <= 0 {
		c.Prompt.QuestionCap = DefaultQuestionCap
	}
	if c.Prompt.ContextCap <= 0 {
		c.Prompt.ContextCap = DefaultContextCap
	}
	if c.Extraction.ContextCap <= 0 {
		c.Extraction.ContextCap = DefaultContextCap
	}
	if c.Extraction.Strict == nil {
		strict := true
		c.Extraction.Strict = &strict
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = DefaultArtifactDir
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = DefaultCacheSize
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = int(DefaultCacheTTL / time.Minute)
	}
	if c.GitHub.Enabled == nil {
		enabled := true
		c.GitHub.Enabled = &enabled
	}
	if c.Deploy.Command == "" {
		c.Deploy.Command = "vercel"
	}
	if len(c.Deploy.Args) == 0 {
		c.Deploy.Args = []string{"--prod", "--yes"}
	}
	if c.Deploy.Timeout <= 0 {
		c.Deploy.Timeout = int(DefaultDeployTimeout / time.Second)
	}
}

// Validate reports the startup-fatal problems of the configuration.
func (c *Config) Validate() error {
	switch c.Prompt.Mode {
	case PromptModeMinimal, PromptModeChainOfThought:
	default:
		return fmt.Errorf("unknown prompt mode %q", c.Prompt.Mode)
	}
	if c.LLM.Provider == ProviderAIProxy {
		if strings.TrimSpace(c.LLM.Token) == "" {
			return errors.New("AIPROXY_TOKEN is not set! Run 'export AIPROXY_TOKEN=your-token' before starting the server")
		}
	} else if _, ok := c.Providers[c.LLM.Provider]; !ok {
		return fmt.Errorf("provider %s not configured", c.LLM.Provider)
	}
	if c.GitHubEnabled() && strings.TrimSpace(c.GitHub.Token) == "" {
		return errors.New("GITHUB_TOKEN is not set")
	}
	switch c.Cache.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHub.Enabled != nil && *c.GitHub.Enabled
}

func (c *Config) StrictExtraction() bool {
	return c.Extraction.Strict != nil && *c.Extraction.Strict
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.BasicConfig.UpstreamTimeout) * time.Second
}

// DeployTimeout bounds one CLI deployment run.
func (d DeployConfig) DeployTimeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultDeployTimeout
	}
	return time.Duration(d.Timeout) * time.Second
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
