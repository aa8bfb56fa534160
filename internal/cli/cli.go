package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/canvasnote/canvasnote/pkg/httputil"
)

// appName is the application name used for directories and display.
const appName = "canvasnote"

// defaultListingTTL bounds how long collaborator directory listings and the
// recent-files list are served from the local cache.
const defaultListingTTL = 5 * time.Minute

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/canvasnote/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/canvasnote/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// newHTTPCache builds the response cache for the collaborator client.
// Returns nil (caching disabled) when noCache is set or no cache directory
// can be resolved; the client degrades to fetching everything fresh.
func newHTTPCache(noCache bool) *httputil.Cache {
	if noCache {
		return nil
	}
	dir, err := cacheDir()
	if err != nil {
		return nil
	}
	c, err := httputil.NewCache(dir, defaultListingTTL)
	if err != nil {
		return nil
	}
	return c
}

// openOutput opens path for writing, creating parent directories as needed.
func openOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
