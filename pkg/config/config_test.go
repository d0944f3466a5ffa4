package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Addr        string        `split_words:"true" default:":8080"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	MAM         float64       `envconfig:"MAM" default:"150"`
	Serialize   bool          `split_words:"true"`
	RequiredKey string        `split_words:"true" required:"true"`
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	t.Setenv("CFGTEST_KEEP", "from-env")
	path := writeEnvFile(t, "CFGTEST_KEEP=from-file\nCFGTEST_NEW=added\n")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_NEW") })

	if got := os.Getenv("CFGTEST_KEEP"); got != "from-env" {
		t.Fatalf("existing variable overwritten: %q", got)
	}
	if got := os.Getenv("CFGTEST_NEW"); got != "added" {
		t.Fatalf("file variable not exported: %q", got)
	}
}

func TestNewDecodesPrefixedVariables(t *testing.T) {
	t.Setenv("CFGAPP_ADDR", ":9090")
	t.Setenv("CFGAPP_SESSION_TTL", "30m")
	t.Setenv("CFGAPP_SERIALIZE", "true")
	t.Setenv("CFGAPP_REQUIRED_KEY", "x")

	conf, err := New[sampleConfig]("CFGAPP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Addr != ":9090" || conf.SessionTTL != 30*time.Minute || !conf.Serialize || conf.MAM != 150 {
		t.Fatalf("unexpected config: %#v", conf)
	}
}

func TestNewMissingRequired(t *testing.T) {
	if _, err := New[sampleConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing required variable")
	}
}

func TestExportEnvironmentIfExistsMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
