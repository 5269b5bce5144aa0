package analyzer

import (
	"context"
	"reflect"
	"testing"

	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
)

func TestAC320_PacerFromConfig(t *testing.T) {
	cases := []struct {
		mode string
		want pacing.Pacer
	}{
		{config.PacingNone, pacing.Noop{}},
		{config.PacingTokenBucket, &pacing.TokenBucket{}},
		{config.PacingFixed, &pacing.Fixed{}},
	}
	for _, tc := range cases {
		got := PacerFromConfig(config.PacingConfig{Mode: tc.mode, RPM: 60, Burst: 1})
		if reflect.TypeOf(got) != reflect.TypeOf(tc.want) {
			t.Errorf("mode %q should build %T, got %T", tc.mode, tc.want, got)
		}
	}
}

func TestAC321_ClassifierPolicy_OverridesOnlySetKnobs(t *testing.T) {
	off := false

	p := ClassifierPolicy(config.ClassifierConfig{DefaultVideoIsReel: &off})

	if p.DefaultVideoIsReel {
		t.Error("explicit false should disable the default-to-reel rule")
	}
	if !p.ModernVideoIsReel || !p.ReelURLOverride {
		t.Errorf("unset knobs should keep their defaults, got %+v", p)
	}
}

func TestAC322_NewYouTubeFromConfig_AppliesDiscoveryBounds(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.Channels = []config.Channel{{Name: "Show", URL: "https://www.youtube.com/@show"}}

	a, err := NewYouTubeFromConfig(context.Background(), cfg)

	if err != nil {
		t.Fatalf("default config should build an analyzer, got %v", err)
	}
	if a.cfg.VideosPerChannel != 3 || a.cfg.MaxEntries != 20 {
		t.Errorf("discovery bounds should come from config, got %+v", a.cfg)
	}
}
