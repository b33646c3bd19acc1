package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/jchantrell/rsbconv/internal/platform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsbconv.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Cleanup(viper.Reset)
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Target != "ios" || cfg.TargetPlatform() != platform.IOS {
		t.Errorf("target: got %q", cfg.Target)
	}
	if !cfg.ContinueOnError || !cfg.OnlyHighResolution || cfg.AnimationSplitLabel {
		t.Errorf("unexpected boolean defaults: %+v", cfg)
	}
	if cfg.Jobs < 1 {
		t.Errorf("jobs: got %d", cfg.Jobs)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging defaults: %s %s", cfg.LogLevel, cfg.LogFormat)
	}
	if !strings.HasSuffix(cfg.History, "history.db") {
		t.Errorf("history: got %q", cfg.History)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
target: android
work_dir: /tmp/rsb-work
history: ""
jobs: 3
continue_on_error: false
decode_method: 2
animation_split_label: true
log_level: debug
log_format: json
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TargetPlatform() != platform.Android {
		t.Errorf("target: got %q", cfg.Target)
	}
	if cfg.WorkDir != "/tmp/rsb-work" || cfg.History != "" || cfg.Jobs != 3 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.ContinueOnError {
		t.Error("continue_on_error should be false")
	}
	if s := cfg.GroupSetting(); s.DecodeMethod != 2 || !s.AnimationSplitLabel {
		t.Errorf("group setting: %+v", s)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"target", "target: windows\n", "unknown platform"},
		{"log level", "log_level: loud\n", "unsupported log_level 'loud'"},
		{"log format", "log_format: xml\n", "unsupported log_format"},
		{"jobs", "jobs: 0\n", "jobs must be at least 1"},
		{"decode method", "decode_method: -1\n", "decode_method cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
			viper.Reset()
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	cfg := &Config{Target: "ios", Jobs: 1, LogLevel: "info", LogFormat: "text"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.Target = "ps4"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown target")
	}
}
