package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
)

var loadOnce sync.Once

// LoadDotEnv loads the nearest ".env" found by walking up from the working
// directory. Existing environment variables are not overridden.
func LoadDotEnv() {
	loadOnce.Do(func() {
		if path, err := findUpwards(".env"); err == nil {
			_ = config.LoadDotEnv(path)
		}
	})
}

func findUpwards(name string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("not found")
		}
		dir = parent
	}
}

// LiveConfig returns the configuration for tests against a real workspace.
// The test is skipped unless CML_MCP_LIVE_TESTS=1 and host and api_key are
// configured.
func LiveConfig(t *testing.T) config.Config {
	t.Helper()
	LoadDotEnv()
	if os.Getenv("CML_MCP_LIVE_TESTS") != "1" {
		t.Skip("set CML_MCP_LIVE_TESTS=1 to run against a live workspace")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Skipf("live workspace not configured: %v", err)
	}
	return cfg
}
