package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/TFMV/springgraph/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSettleDemoGraph(t *testing.T) {
	out, err := run(t, "settle", "--max-steps", "50", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res settleResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(res.Nodes) != 6 {
		t.Errorf("nodes = %d, want 6", len(res.Nodes))
	}
	if res.Steps < 1 || res.Steps > 50 {
		t.Errorf("steps = %d, want 1..50", res.Steps)
	}
	if res.Nodes[0].ID != "dreams" || res.Nodes[0].Label != "Dreams" {
		t.Errorf("first node = %+v", res.Nodes[0])
	}
}

func TestSettleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	if err := os.WriteFile(path, []byte(`{"nodes":["a","b"],"edges":[["a","b"]]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "settle", "--max-steps", "20", "--seed", "7", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ID", "LABEL", "after", "a", "b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSettleIsDeterministic(t *testing.T) {
	first, err := run(t, "settle", "--max-steps", "30", "--json")
	if err != nil {
		t.Fatal(err)
	}
	second, err := run(t, "settle", "--max-steps", "30", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("runs differ:\n%s\n%s", first, second)
	}
}

func TestCommandErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")
	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"--config", missing, "settle"}},
		{"bad damping", []string{"settle", "--damping", "2"}},
		{"unknown palette", []string{"settle", "--palette", "neon"}},
		{"zero steps", []string{"settle", "--max-steps", "0"}},
		{"missing graph", []string{"settle", "nope.json"}},
		{"too many args", []string{"settle", "a.json", "b.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if loggerFromContext(ctx) != log.Default() {
		t.Error("empty context should give the default logger")
	}
	if got := configFromContext(ctx); got.Layout.Stiffness != config.Default().Layout.Stiffness {
		t.Error("empty context should give the default config")
	}

	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)
	cfg := config.Default()
	cfg.Palette = "dark"
	ctx = withConfig(withLogger(ctx, logger), cfg)

	if loggerFromContext(ctx) != logger {
		t.Error("logger not carried by context")
	}
	if configFromContext(ctx).Palette != "dark" {
		t.Error("config not carried by context")
	}

	loggerFromContext(ctx).Debug("hello", "k", 1)
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "k=1") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := run(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("init printed %q, want %q", out, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Layout.Stiffness != config.Default().Layout.Stiffness {
		t.Errorf("written stiffness = %v", cfg.Layout.Stiffness)
	}

	if _, err := run(t, "config", "init", "--config", path); err == nil {
		t.Error("init overwrote an existing file without --force")
	}
	if _, err := run(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
	if _, err := run(t, "--config", path, "settle", "--max-steps", "5"); err != nil {
		t.Errorf("settle with the written config: %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	out, err := run(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("springgraph", "config.toml")) {
		t.Errorf("path = %q", out)
	}
}
