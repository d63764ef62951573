// Package config loads the reviewer configuration from an optional YAML
// file. Every field has a working default; a missing file means defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ViewerConfig configures the slice viewer.
type ViewerConfig struct {
	// ImageRoot is the directory the file image loader serves from.
	ImageRoot string `yaml:"image_root"`
	// MaxImageMB caps the size of a single slice read.
	MaxImageMB int `yaml:"max_image_mb"`
	// PrevKeys/NextKeys are the navigation key bindings.
	PrevKeys []string `yaml:"prev_keys"`
	NextKeys []string `yaml:"next_keys"`
}

// ReportConfig configures report annotation.
type ReportConfig struct {
	AbnormalTerms []string `yaml:"abnormal_terms"`
	NormalTerms   []string `yaml:"normal_terms"`
	// MaxLevelBlockChars is the tinting length cutoff.
	MaxLevelBlockChars int `yaml:"max_level_block_chars"`
}

// ExportConfig configures the export targets.
type ExportConfig struct {
	Title        string  `yaml:"title"`
	PDFMarginMM  float64 `yaml:"pdf_margin_mm"`
	PDFFontPt    float64 `yaml:"pdf_font_pt"`
	PDFLineHtMM  float64 `yaml:"pdf_line_height_mm"`
}

// Config is the full reviewer configuration.
type Config struct {
	Viewer ViewerConfig `yaml:"viewer"`
	Report ReportConfig `yaml:"report"`
	Export ExportConfig `yaml:"export"`
}

func (c *Config) defaults() {
	if c.Viewer.ImageRoot == "" {
		c.Viewer.ImageRoot = "."
	}
	if c.Viewer.MaxImageMB <= 0 {
		c.Viewer.MaxImageMB = 32
	}
	if c.Export.Title == "" {
		c.Export.Title = "Radiology Report"
	}
	// Remaining zero values fall through to the package defaults in
	// report and export.
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.defaults()
	return c
}

// Load reads the configuration file at path. An empty path or a missing
// file yields the defaults; a present-but-invalid file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.defaults()
	return c, nil
}
