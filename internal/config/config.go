// Package config loads rivalscope settings from YAML, the legacy JSON
// roster files and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"gopkg.in/yaml.v3"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

// Config is the full configuration of one run.
type Config struct {
	Instagram     InstagramConfig     `yaml:"instagram"`
	YouTube       YouTubeConfig       `yaml:"youtube"`
	Pacing        PacingConfig        `yaml:"pacing"`
	Summarization SummarizationConfig `yaml:"summarization"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Output        OutputConfig        `yaml:"output"`
	Log           LogConfig           `yaml:"log"`
	Server        ServerConfig        `yaml:"server"`
}

// InstagramConfig lists the accounts to scan and the scan bounds.
type InstagramConfig struct {
	Accounts          []string         `yaml:"accounts"`
	BaseURL           string           `yaml:"base_url"`
	AppID             string           `yaml:"app_id"`
	MaxPostsChecked   int              `yaml:"max_posts_checked"`
	MaxConsecutiveOld int              `yaml:"max_consecutive_old"`
	Classifier        ClassifierConfig `yaml:"classifier"`
}

// ClassifierConfig exposes the reel policy knobs. Nil means enabled.
type ClassifierConfig struct {
	ModernVideoIsReel  *bool `yaml:"modern_video_is_reel"`
	DefaultVideoIsReel *bool `yaml:"default_video_is_reel"`
	ReelURLOverride    *bool `yaml:"reel_url_override"`
}

// Channel is one YouTube competitor.
type Channel struct {
	Name        string   `yaml:"name" json:"name"`
	URL         string   `yaml:"url" json:"url"`
	ChannelID   string   `yaml:"channel_id" json:"channel_id,omitempty"`
	SearchTerms []string `yaml:"search_terms" json:"search_terms,omitempty"`
}

// YouTubeConfig lists channels and the discovery bounds.
type YouTubeConfig struct {
	Channels         []Channel `yaml:"channels"`
	BaseURL          string    `yaml:"base_url"`
	VideosPerChannel int       `yaml:"videos_per_channel"`
	MaxEntries       int       `yaml:"max_entries"`
}

// PacingConfig selects how calls are spaced out.
type PacingConfig struct {
	Mode          string        `yaml:"mode"`
	BeforeAccount time.Duration `yaml:"before_account"`
	AfterAccount  time.Duration `yaml:"after_account"`
	BetweenVideos time.Duration `yaml:"between_videos"`
	BeforeSummary time.Duration `yaml:"before_summary"`
	Jitter        time.Duration `yaml:"jitter"`
	RPM           float64       `yaml:"rpm"`
	Burst         int           `yaml:"burst"`
}

// Pacing modes.
const (
	PacingFixed       = "fixed"
	PacingTokenBucket = "token_bucket"
	PacingNone        = "none"
)

// ProviderConfig is one AI summarization provider.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SummarizationConfig configures the provider chain.
type SummarizationConfig struct {
	Providers   []ProviderConfig `yaml:"providers"`
	MaxAttempts int              `yaml:"max_attempts"`
	BackoffStep time.Duration    `yaml:"backoff_step"`
}

// TranscriptionConfig configures caption retrieval.
type TranscriptionConfig struct {
	Method      string        `yaml:"method"`
	Languages   []string      `yaml:"languages"`
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffStep time.Duration `yaml:"backoff_step"`
}

// Transcription methods.
const (
	TranscriptionYouTube = "youtube"
	TranscriptionSkip    = "skip"
)

// OutputConfig names the JSON snapshots and metrics file.
type OutputConfig struct {
	InstagramFile string `yaml:"instagram_file"`
	YouTubeFile   string `yaml:"youtube_file"`
	MetricsFile   string `yaml:"metrics_file"`
}

// LogConfig mirrors the logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied and no roster.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file, or a legacy JSON roster when the extension is
// .json, then applies defaults and environment overrides. An empty path
// yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// MergeLegacyFile overlays a competitor_accounts.json or
// youtube_competitors.json file onto cfg.
func (c *Config) MergeLegacyFile(path string) error {
	if err := c.mergeLegacy(path); err != nil {
		return err
	}
	c.applyDefaults()
	c.normalize()
	return nil
}

func (c *Config) mergeFile(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return c.mergeLegacy(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", errs.ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", errs.ErrConfig, path, err)
	}
	return nil
}

// legacyFile is the union of the two JSON roster formats.
type legacyFile struct {
	Accounts []string  `json:"accounts"`
	Channels []Channel `json:"channels"`
	Settings struct {
		Summarization struct {
			Method string `json:"method"`
			APIKey string `json:"api_key"`
			Model  string `json:"model"`
		} `json:"summarization"`
		Transcription struct {
			Method string `json:"method"`
		} `json:"transcription"`
	} `json:"settings"`
}

func (c *Config) mergeLegacy(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", errs.ErrConfig, path, err)
	}

	var lf legacyFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("%w: invalid JSON in %s: %v", errs.ErrConfig, path, err)
	}

	c.Instagram.Accounts = append(c.Instagram.Accounts, lf.Accounts...)
	c.YouTube.Channels = append(c.YouTube.Channels, lf.Channels...)

	s := lf.Settings.Summarization
	if s.APIKey != "" || s.Method != "" {
		name := s.Method
		if name == "" {
			name = "gemini"
		}
		c.Summarization.Providers = append(c.Summarization.Providers, ProviderConfig{
			Name:   name,
			Model:  s.Model,
			APIKey: s.APIKey,
		})
	}
	if m := lf.Settings.Transcription.Method; m != "" {
		c.Transcription.Method = m
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Instagram.BaseURL == "" {
		c.Instagram.BaseURL = "https://www.instagram.com"
	}
	if c.Instagram.AppID == "" {
		c.Instagram.AppID = "936619743392459"
	}
	if c.Instagram.MaxPostsChecked <= 0 {
		c.Instagram.MaxPostsChecked = 50
	}
	if c.Instagram.MaxConsecutiveOld <= 0 {
		c.Instagram.MaxConsecutiveOld = 10
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://www.youtube.com"
	}
	if c.YouTube.VideosPerChannel <= 0 {
		c.YouTube.VideosPerChannel = 3
	}
	if c.YouTube.MaxEntries <= 0 {
		c.YouTube.MaxEntries = 20
	}
	if c.Pacing.Mode == "" {
		c.Pacing.Mode = PacingFixed
	}
	if c.Pacing.BeforeAccount == 0 {
		c.Pacing.BeforeAccount = 2 * time.Second
	}
	if c.Pacing.AfterAccount == 0 {
		c.Pacing.AfterAccount = time.Second
	}
	if c.Pacing.BetweenVideos == 0 {
		c.Pacing.BetweenVideos = 5 * time.Second
	}
	if c.Pacing.BeforeSummary == 0 {
		c.Pacing.BeforeSummary = 2 * time.Second
	}
	if c.Pacing.RPM <= 0 {
		c.Pacing.RPM = 30
	}
	if c.Pacing.Burst <= 0 {
		c.Pacing.Burst = 1
	}
	if c.Summarization.MaxAttempts <= 0 {
		c.Summarization.MaxAttempts = 3
	}
	if c.Summarization.BackoffStep == 0 {
		c.Summarization.BackoffStep = 15 * time.Second
	}
	if c.Transcription.Method == "" {
		c.Transcription.Method = TranscriptionYouTube
	}
	if len(c.Transcription.Languages) == 0 {
		c.Transcription.Languages = []string{"en", "en-US", "en-GB"}
	}
	if c.Transcription.MaxAttempts <= 0 {
		c.Transcription.MaxAttempts = 3
	}
	if c.Transcription.BackoffStep == 0 {
		c.Transcription.BackoffStep = 5 * time.Second
	}
	if c.Output.InstagramFile == "" {
		c.Output.InstagramFile = "competitor_analysis_results.json"
	}
	if c.Output.YouTubeFile == "" {
		c.Output.YouTubeFile = "youtube_analysis_results.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
}

// applyEnv lets the environment override or fill the file settings.
func (c *Config) applyEnv() {
	if accounts := nonEmpty(env.List("RIVALSCOPE_IG_ACCOUNTS", "")); len(accounts) > 0 {
		c.Instagram.Accounts = accounts
	}
	c.Pacing.Mode = env.Str("RIVALSCOPE_PACING", c.Pacing.Mode)
	c.Log.Level = env.Str("RIVALSCOPE_LOG_LEVEL", c.Log.Level)
	c.YouTube.VideosPerChannel = env.Int("RIVALSCOPE_VIDEOS_PER_CHANNEL", c.YouTube.VideosPerChannel)
	c.Server.Addr = env.Str("RIVALSCOPE_ADDR", c.Server.Addr)

	c.fillProviderKey("gemini", env.Str("GEMINI_API_KEY", ""))
	c.fillProviderKey("openai_gpt", env.Str("OPENAI_API_KEY", ""))
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// fillProviderKey sets the key of the named provider when the file left it
// blank, adding the provider if it was not configured at all.
func (c *Config) fillProviderKey(name, key string) {
	if key == "" {
		return
	}
	for i := range c.Summarization.Providers {
		if c.Summarization.Providers[i].Name == name {
			if c.Summarization.Providers[i].APIKey == "" {
				c.Summarization.Providers[i].APIKey = key
			}
			return
		}
	}
	c.Summarization.Providers = append(c.Summarization.Providers, ProviderConfig{Name: name, APIKey: key})
}

func (c *Config) normalize() {
	accounts := make([]string, 0, len(c.Instagram.Accounts))
	seen := make(map[string]bool)
	for _, a := range c.Instagram.Accounts {
		a = strings.TrimPrefix(strings.TrimSpace(a), "@")
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		accounts = append(accounts, a)
	}
	c.Instagram.Accounts = accounts

	channels := make([]Channel, 0, len(c.YouTube.Channels))
	for _, ch := range c.YouTube.Channels {
		ch.Name = strings.TrimSpace(ch.Name)
		ch.URL = strings.TrimSpace(ch.URL)
		if ch.Name == "" && ch.URL == "" {
			continue
		}
		if ch.Name == "" {
			ch.Name = "Unknown"
		}
		channels = append(channels, ch)
	}
	c.YouTube.Channels = channels
}

// ValidateInstagram reports a missing account roster.
func (c *Config) ValidateInstagram() error {
	if len(c.Instagram.Accounts) == 0 {
		return fmt.Errorf("%w: no Instagram accounts configured", errs.ErrConfig)
	}
	return c.validatePacing()
}

// ValidateYouTube reports a missing channel roster or bad method names.
func (c *Config) ValidateYouTube() error {
	if len(c.YouTube.Channels) == 0 {
		return fmt.Errorf("%w: no YouTube channels configured", errs.ErrConfig)
	}
	switch c.Transcription.Method {
	case TranscriptionYouTube, TranscriptionSkip:
	default:
		return fmt.Errorf("%w: unknown transcription method %q", errs.ErrConfig, c.Transcription.Method)
	}
	return c.validatePacing()
}

func (c *Config) validatePacing() error {
	switch c.Pacing.Mode {
	case PacingFixed, PacingTokenBucket, PacingNone:
		return nil
	default:
		return fmt.Errorf("%w: unknown pacing mode %q", errs.ErrConfig, c.Pacing.Mode)
	}
}

// BoolOr dereferences b, returning def when unset.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Redacted returns a copy safe to print, with API keys masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Summarization.Providers = make([]ProviderConfig, len(c.Summarization.Providers))
	for i, p := range c.Summarization.Providers {
		if p.APIKey != "" {
			p.APIKey = "****"
		}
		out.Summarization.Providers[i] = p
	}
	return &out
}
