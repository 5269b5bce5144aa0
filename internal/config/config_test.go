package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAC700_Load_ReadsYAMLAndAppliesDefaults(t *testing.T) {
	path := writeFile(t, "rivalscope.yaml", `
instagram:
  accounts: ["@natgeo", " nasa ", "", "natgeo"]
youtube:
  channels:
    - name: Acquired
      url: https://www.youtube.com/@AcquiredFM
    - name: ""
      url: ""
pacing:
  mode: token_bucket
  before_account: 3s
summarization:
  providers:
    - name: gemini
      model: gemini-1.5-flash
      api_key: k1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("config should load: %v", err)
	}

	if got := cfg.Instagram.Accounts; len(got) != 2 || got[0] != "natgeo" || got[1] != "nasa" {
		t.Errorf("accounts should be trimmed, de-duplicated and stripped of @, got %v", got)
	}
	if len(cfg.YouTube.Channels) != 1 {
		t.Errorf("empty channel entries should be dropped, got %d", len(cfg.YouTube.Channels))
	}
	if cfg.Pacing.BeforeAccount != 3*time.Second {
		t.Errorf("explicit delay should be kept, got %s", cfg.Pacing.BeforeAccount)
	}
	if cfg.Pacing.AfterAccount != time.Second {
		t.Errorf("missing delay should default to 1s, got %s", cfg.Pacing.AfterAccount)
	}
	if cfg.Instagram.MaxPostsChecked != 50 || cfg.Instagram.MaxConsecutiveOld != 10 {
		t.Errorf("scan bounds should default to 50 and 10, got %d and %d", cfg.Instagram.MaxPostsChecked, cfg.Instagram.MaxConsecutiveOld)
	}
	if cfg.YouTube.VideosPerChannel != 3 || cfg.YouTube.MaxEntries != 20 {
		t.Errorf("discovery bounds should default to 3 and 20, got %d and %d", cfg.YouTube.VideosPerChannel, cfg.YouTube.MaxEntries)
	}
	if cfg.Summarization.BackoffStep != 15*time.Second {
		t.Errorf("summary backoff step should default to 15s, got %s", cfg.Summarization.BackoffStep)
	}
}

func TestAC701_Load_AcceptsLegacyJSONRosters(t *testing.T) {
	accounts := writeFile(t, "competitor_accounts.json", `{"accounts": ["alpha", "beta "]}`)
	channels := writeFile(t, "youtube_competitors.json", `{
  "channels": [{"name": "Example", "url": "https://www.youtube.com/@example", "search_terms": ["podcast"]}],
  "settings": {"summarization": {"method": "openai_gpt", "api_key": "sk-test", "model": "gpt-4o-mini"},
               "transcription": {"method": "skip"}}
}`)

	cfg, err := Load(accounts)
	if err != nil {
		t.Fatalf("legacy accounts file should load: %v", err)
	}
	if err := cfg.MergeLegacyFile(channels); err != nil {
		t.Fatalf("legacy channels file should merge: %v", err)
	}

	if len(cfg.Instagram.Accounts) != 2 || cfg.Instagram.Accounts[1] != "beta" {
		t.Errorf("user should see both accounts, got %v", cfg.Instagram.Accounts)
	}
	if len(cfg.YouTube.Channels) != 1 || cfg.YouTube.Channels[0].Name != "Example" {
		t.Errorf("user should see the channel, got %+v", cfg.YouTube.Channels)
	}
	p := cfg.Summarization.Providers
	if len(p) != 1 || p[0].Name != "openai_gpt" || p[0].APIKey != "sk-test" || p[0].Model != "gpt-4o-mini" {
		t.Errorf("legacy summarization settings should become a provider, got %+v", p)
	}
	if cfg.Transcription.Method != TranscriptionSkip {
		t.Errorf("legacy transcription method should carry over, got %q", cfg.Transcription.Method)
	}
}

func TestAC702_Load_ReportsBrokenFilesAsConfigErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, errs.ErrConfig) {
		t.Errorf("missing file should be a config error, got %v", err)
	}

	bad := writeFile(t, "bad.json", `{"accounts": [`)
	_, err = Load(bad)
	if !errors.Is(err, errs.ErrConfig) {
		t.Errorf("invalid JSON should be a config error, got %v", err)
	}
}

func TestAC703_Validate_RequiresRoster(t *testing.T) {
	cfg := Default()

	if err := cfg.ValidateInstagram(); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("empty account list should be fatal, got %v", err)
	}
	if err := cfg.ValidateYouTube(); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("empty channel list should be fatal, got %v", err)
	}

	cfg.Instagram.Accounts = []string{"a"}
	cfg.Pacing.Mode = "warp"
	if err := cfg.ValidateInstagram(); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("unknown pacing mode should be rejected, got %v", err)
	}
}

func TestAC704_Load_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RIVALSCOPE_IG_ACCOUNTS", "one,two")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("RIVALSCOPE_PACING", "none")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}

	if len(cfg.Instagram.Accounts) != 2 || cfg.Instagram.Accounts[0] != "one" {
		t.Errorf("accounts should come from the environment, got %v", cfg.Instagram.Accounts)
	}
	if cfg.Pacing.Mode != PacingNone {
		t.Errorf("pacing mode should come from the environment, got %q", cfg.Pacing.Mode)
	}
	if len(cfg.Summarization.Providers) != 1 || cfg.Summarization.Providers[0].APIKey != "g-key" {
		t.Errorf("gemini provider should be added from GEMINI_API_KEY, got %+v", cfg.Summarization.Providers)
	}
}

func TestAC705_Redacted_MasksKeys(t *testing.T) {
	cfg := Default()
	cfg.Summarization.Providers = []ProviderConfig{{Name: "gemini", APIKey: "secret"}}

	red := cfg.Redacted()

	if red.Summarization.Providers[0].APIKey != "****" {
		t.Error("printed config should not reveal API keys")
	}
	if cfg.Summarization.Providers[0].APIKey != "secret" {
		t.Error("redacting should not modify the original")
	}
}
