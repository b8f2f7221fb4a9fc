package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration decodes TOML strings such as "1s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type VoiceConfig struct {
	EnableSpatialCommands bool     `toml:"enable_spatial_commands"`
	MaxListen             Duration `toml:"max_listen"`
	LLMFallback           bool     `toml:"llm_fallback"`
	LLMDescriptions       bool     `toml:"llm_descriptions"`
}

type WorkspaceConfig struct {
	ConnectThreshold float64  `toml:"connect_threshold"`
	DuplicateOffset  float64  `toml:"duplicate_offset"`
	MoveStep         float64  `toml:"move_step"`
	NudgeStep        float64  `toml:"nudge_step"`
	RegenDebounce    Duration `toml:"regen_debounce"`
	DefaultLanguage  string   `toml:"default_language"`
	HistoryLimit     int      `toml:"history_limit"`
}

type LLMConfig struct {
	Provider           string `toml:"provider"`
	Model              string `toml:"model"`
	TranscriptionModel string `toml:"transcription_model"`
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type RedisConfig struct {
	URL string   `toml:"url"`
	TTL Duration `toml:"ttl"`
}

type RunnerConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Voice     VoiceConfig     `toml:"voice"`
	Workspace WorkspaceConfig `toml:"workspace"`
	LLM       LLMConfig       `toml:"llm"`
	Memgraph  MemgraphConfig  `toml:"memgraph"`
	Redis     RedisConfig     `toml:"redis"`
	Runner    RunnerConfig    `toml:"runner"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Voice: VoiceConfig{
			EnableSpatialCommands: true,
			MaxListen:             Duration{5 * time.Second},
		},
		Workspace: WorkspaceConfig{
			ConnectThreshold: 100,
			DuplicateOffset:  50,
			MoveStep:         50,
			NudgeStep:        10,
			RegenDebounce:    Duration{time.Second},
			DefaultLanguage:  "python",
			HistoryLimit:     50,
		},
		Redis: RedisConfig{
			TTL: Duration{24 * time.Hour},
		},
		Runner: RunnerConfig{
			URL:     "http://localhost:5000",
			Timeout: Duration{5 * time.Second},
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a TOML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_TRANSCRIPTION_MODEL", &c.LLM.TranscriptionModel)
	setString("LLM_API_KEY", &c.LLM.APIKey)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	setString("MEMGRAPH_URI", &c.Memgraph.URI)
	setString("MEMGRAPH_USER", &c.Memgraph.User)
	setString("MEMGRAPH_PASSWORD", &c.Memgraph.Password)
	setString("REDIS_URL", &c.Redis.URL)
	setString("RUNNER_URL", &c.Runner.URL)
	setString("PORT", &c.Server.Port)
	setString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("VOICE_SPATIAL_COMMANDS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Voice.EnableSpatialCommands = b
		}
	}
}

func (c *Config) Validate() error {
	if c.Workspace.ConnectThreshold <= 0 {
		return fmt.Errorf("workspace.connect_threshold must be positive, got %v", c.Workspace.ConnectThreshold)
	}
	if c.Workspace.RegenDebounce.Duration <= 0 {
		return fmt.Errorf("workspace.regen_debounce must be positive")
	}
	if c.Voice.MaxListen.Duration <= 0 {
		return fmt.Errorf("voice.max_listen must be positive")
	}
	if c.Workspace.MoveStep <= 0 || c.Workspace.NudgeStep <= 0 {
		return fmt.Errorf("workspace move and nudge steps must be positive")
	}
	if c.Runner.Timeout.Duration <= 0 {
		return fmt.Errorf("runner.timeout must be positive")
	}
	return nil
}
