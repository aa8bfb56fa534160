package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/canvasnote/canvasnote/pkg/model"
)

// Config is the user configuration loaded from config.toml. Every field has
// a working default; the file is optional.
type Config struct {
	Collaborator CollaboratorConfig `toml:"collaborator"`
	Canvas       CanvasConfig       `toml:"canvas"`
	Redis        RedisConfig        `toml:"redis"`
	Mongo        MongoConfig        `toml:"mongo"`
}

// CollaboratorConfig locates the execution collaborator.
type CollaboratorConfig struct {
	// URL is the collaborator endpoint. Empty disables execution: running a
	// cell materializes an error output explaining that no collaborator is
	// configured.
	URL string `toml:"url"`

	// TimeoutSeconds is the per-request timeout. Zero selects the client
	// default.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c CollaboratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CanvasConfig seeds the canvas settings of newly created documents.
type CanvasConfig struct {
	PageSize    string  `toml:"page_size"`   // "a4" or "letter"
	Orientation string  `toml:"orientation"` // "portrait" or "landscape"
	GridSize    float64 `toml:"grid_size"`
	SnapToGrid  bool    `toml:"snap_to_grid"`
}

// RedisConfig locates the optional redis session backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig locates the optional document repository for serve.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// defaultConfig returns the built-in configuration.
func defaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{
			PageSize:    model.PageSizeA4.Name,
			Orientation: string(model.OrientationPortrait),
			GridSize:    model.DefaultCanvas().GridSize,
		},
	}
}

// loadConfig reads the configuration from path, or from the default location
// when path is empty. A missing file yields the defaults; a malformed file is
// an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyCanvasConfig writes the configured canvas defaults onto a fresh
// document. Unknown values fall back to the model defaults.
func applyCanvasConfig(d *model.Document, cfg CanvasConfig) {
	switch cfg.PageSize {
	case model.PageSizeLetter.Name:
		d.Canvas.PageSize = model.PageSizeLetter
	case model.PageSizeA4.Name, "":
		d.Canvas.PageSize = model.PageSizeA4
	}
	if cfg.Orientation == string(model.OrientationLandscape) {
		d.Canvas.Orientation = model.OrientationLandscape
	}
	if cfg.GridSize > 0 {
		d.Canvas.GridSize = cfg.GridSize
	}
	d.Canvas.SnapToGrid = cfg.SnapToGrid
}
