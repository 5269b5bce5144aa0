// Package main tests document the expected behavior of the rivalscope CLI.
//
// These are BLACK BOX tests - they build the binary once and check its
// stdout, stderr and the files it writes.
//
// External dependencies mocked:
// - Instagram and YouTube via httptest servers serving pkg/contracts
//   payloads, named in a YAML config
// - API keys via the process environment
//
// Test requirements (this file serves as documentation):
// - CLI has root command with version info
// - "instagram" ranks posts and writes the JSON snapshot
// - "youtube" and "instagram" refuse to run without a roster
// - "config" prints the resolved configuration with keys masked
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gauthierbraillon/rivalscope/pkg/contracts"
)

var binaryPath string

// TestMain builds the binary once before running tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "rivalscope-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "rivalscope")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runCLI executes the CLI binary with given arguments and environment.
func runCLI(t *testing.T, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// runCLISimple runs CLI without custom environment.
func runCLISimple(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	return runCLI(t, nil, args...)
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rivalscope.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRootCommand_Help verifies help output shows available commands.
func TestRootCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--help")
	output := strings.ToLower(stdout)

	expects := []string{"rivalscope", "usage", "instagram", "youtube", "config", "serve"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestRootCommand_Version verifies version output.
func TestRootCommand_Version(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--version")

	if !strings.HasPrefix(stdout, "rivalscope version ") {
		t.Errorf("version should show rivalscope and version, got:\n%s", stdout)
	}
}

// TestInstagramCommand_RequiresAccounts verifies an empty roster is fatal.
func TestInstagramCommand_RequiresAccounts(t *testing.T) {
	_, stderr, exitCode := runCLI(t, map[string]string{"RIVALSCOPE_IG_ACCOUNTS": ""}, "instagram")

	if exitCode == 0 {
		t.Error("should fail without accounts")
	}
	if !strings.Contains(stderr, "no Instagram accounts") {
		t.Errorf("error should say no accounts are configured, got:\n%s", stderr)
	}
}

// TestYouTubeCommand_RequiresChannels verifies an empty channel list is fatal.
func TestYouTubeCommand_RequiresChannels(t *testing.T) {
	_, stderr, exitCode := runCLISimple(t, "youtube")

	if exitCode == 0 {
		t.Error("should fail without channels")
	}
	if !strings.Contains(stderr, "no YouTube channels") {
		t.Errorf("error should say no channels are configured, got:\n%s", stderr)
	}
}

// TestYouTubeCommand_Help verifies youtube help shows output options.
func TestYouTubeCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "youtube", "--help")

	for _, want := range []string{"--output", "--metrics-file", "--config"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("youtube help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestEnvFile_ExplicitMissingFileFails verifies a named env file must exist.
func TestEnvFile_ExplicitMissingFileFails(t *testing.T) {
	_, stderr, exitCode := runCLISimple(t, "config", "--env-file", filepath.Join(t.TempDir(), "missing.env"))

	if exitCode == 0 {
		t.Error("should fail when the named env file is missing")
	}
	if !strings.Contains(stderr, "env file") {
		t.Errorf("error should mention the env file, got:\n%s", stderr)
	}
}

// TestConfigCommand_MasksKeys verifies config prints settings without secrets.
func TestConfigCommand_MasksKeys(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "keys.env")
	if err := os.WriteFile(envFile, []byte("GEMINI_API_KEY=super-secret-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, "instagram:\n  accounts: [\"@acme\", globex]\n")

	stdout, stderr, exitCode := runCLISimple(t, "config", "--config", cfgPath, "--env-file", envFile)

	if exitCode != 0 {
		t.Fatalf("config should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if strings.Contains(stdout, "super-secret-key") {
		t.Errorf("config output should not reveal API keys, got:\n%s", stdout)
	}
	for _, want := range []string{"****", "gemini", "- acme", "- globex"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestInstagramCommand_RanksAndSaves verifies a full run against a mocked
// Instagram API prints the ranking and writes the snapshot and metrics.
func TestInstagramCommand_RanksAndSaves(t *testing.T) {
	taken := time.Now().Add(-2 * time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "web_profile_info"):
			fmt.Fprint(w, contracts.InstagramProfile(taken))
		case strings.Contains(r.URL.Path, "graphql"):
			fmt.Fprint(w, contracts.InstagramTimelinePage(taken))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	outDir := t.TempDir()
	outFile := filepath.Join(outDir, "ig.json")
	metricsFile := filepath.Join(outDir, "metrics.prom")
	cfgPath := writeConfig(t, fmt.Sprintf("instagram:\n  accounts: [%s]\n  base_url: %s\npacing:\n  mode: none\n",
		contracts.InstagramUsername, server.URL))

	stdout, stderr, exitCode := runCLISimple(t, "instagram", "--config", cfgPath, "--output", outFile, "--metrics-file", metricsFile)

	if exitCode != 0 {
		t.Fatalf("instagram should succeed, got exit code %d: %s", exitCode, stderr)
	}
	for _, want := range []string{"TOP 1 REELS", "TOP 1 POSTS", "@" + contracts.InstagramUsername, "Launch day", outFile} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output should contain %q, got:\n%s", want, stdout)
		}
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("snapshot should be written: %v", err)
	}
	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("snapshot should be JSON: %v", err)
	}
	if snapshot["total_posts_found"] != float64(2) {
		t.Errorf("snapshot should count both posts, got %v", snapshot["total_posts_found"])
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics should be written: %v", err)
	}
	if !strings.Contains(string(prom), "rivalscope_accounts_scanned_total") {
		t.Errorf("metrics should include the account counter, got:\n%s", prom)
	}
}

// TestYouTubeCommand_SummarizesNewEpisode verifies a full run against a
// mocked YouTube falls back to the extractive summary without API keys.
func TestYouTubeCommand_SummarizesNewEpisode(t *testing.T) {
	uploaded := time.Now().Add(-time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feeds/videos.xml":
			fmt.Fprint(w, contracts.YouTubeChannelFeed(uploaded))
		case "/watch":
			fmt.Fprint(w, contracts.YouTubeWatchPage(uploaded))
		case "/api/timedtext":
			fmt.Fprint(w, contracts.YouTubeSubtitleVTT)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	outFile := filepath.Join(t.TempDir(), "yt.json")
	cfgPath := writeConfig(t, fmt.Sprintf(`youtube:
  base_url: %s
  channels:
    - name: Acquired
      channel_id: %s
pacing:
  mode: none
`, server.URL, contracts.YouTubeChannelID))
	env := map[string]string{"GEMINI_API_KEY": "", "OPENAI_API_KEY": ""}

	stdout, stderr, exitCode := runCLI(t, env, "youtube", "--config", cfgPath, "--output", outFile)

	if exitCode != 0 {
		t.Fatalf("youtube should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "[ACQUIRED] "+contracts.YouTubeTitle) {
		t.Errorf("output should show the episode, got:\n%s", stdout)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("snapshot should be written: %v", err)
	}
	var snapshot struct {
		Podcasts []struct {
			Summary    string `json:"summary"`
			Transcript string `json:"transcript"`
		} `json:"podcasts"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("snapshot should be JSON: %v", err)
	}
	if len(snapshot.Podcasts) != 1 {
		t.Fatalf("snapshot should hold one podcast, got %d", len(snapshot.Podcasts))
	}
	if snapshot.Podcasts[0].Transcript != contracts.YouTubeSubtitleText {
		t.Errorf("snapshot should keep the transcript, got %q", snapshot.Podcasts[0].Transcript)
	}
	if !strings.HasPrefix(snapshot.Podcasts[0].Summary, "Welcome back to the show") {
		t.Errorf("summary should be extracted from the transcript, got %q", snapshot.Podcasts[0].Summary)
	}
}
