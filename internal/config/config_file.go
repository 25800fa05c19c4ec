package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "45s" or "500ms" in both YAML and
// JSON. A bare integer is taken as nanoseconds.
type Duration time.Duration

func parseDuration(s string) (Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// not a string, keep the raw number
		s = string(b)
	}
	v, err := parseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", b, err)
	}
	*d = v
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	*d = v
	return nil
}

// FileConfig represents the single-file configuration schema.
// Every field is optional; unset fields keep their defaults.
type FileConfig struct {
	Browser struct {
		UserAgent        string   `yaml:"userAgent" json:"userAgent"`
		RenderTimeout    Duration `yaml:"renderTimeout" json:"renderTimeout"`
		SettleDelay      Duration `yaml:"settleDelay" json:"settleDelay"`
		MaxChallengeWait Duration `yaml:"maxChallengeWait" json:"maxChallengeWait"`
	} `yaml:"browser" json:"browser"`

	Gallery struct {
		Selectors   []SelectorSpec `yaml:"selectors" json:"selectors"`
		LazySources *bool          `yaml:"lazySources" json:"lazySources"`
	} `yaml:"gallery" json:"gallery"`

	Markers struct {
		PrimaryClasses []string `yaml:"primaryClasses" json:"primaryClasses"`
		Large          []string `yaml:"large" json:"large"`
		Medium         []string `yaml:"medium" json:"medium"`
		Thumb          []string `yaml:"thumb" json:"thumb"`
		ThumbPath      []string `yaml:"thumbPath" json:"thumbPath"`
		AltPositive    []string `yaml:"altPositive" json:"altPositive"`
		AltLogo        []string `yaml:"altLogo" json:"altLogo"`
	} `yaml:"markers" json:"markers"`

	Weights struct {
		PrimaryClass *int `yaml:"primaryClass" json:"primaryClass"`
		LargeHint    *int `yaml:"largeHint" json:"largeHint"`
		MediumHint   *int `yaml:"mediumHint" json:"mediumHint"`
		AltPositive  *int `yaml:"altPositive" json:"altPositive"`
		ThumbHint    *int `yaml:"thumbHint" json:"thumbHint"`
		ThumbPath    *int `yaml:"thumbPath" json:"thumbPath"`
		AltLogo      *int `yaml:"altLogo" json:"altLogo"`
	} `yaml:"weights" json:"weights"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays the values present in fc onto the given configs
// and validates the resulting weights.
func ApplyFileConfig(sc *ScrapeConfig, ic *ProductImageConfig, fc FileConfig) error {
	if sc != nil {
		if fc.Browser.UserAgent != "" {
			sc.UserAgent = fc.Browser.UserAgent
		}
		if fc.Browser.RenderTimeout > 0 {
			sc.RenderTimeout = time.Duration(fc.Browser.RenderTimeout)
		}
		if fc.Browser.SettleDelay > 0 {
			sc.SettleDelay = time.Duration(fc.Browser.SettleDelay)
		}
		if fc.Browser.MaxChallengeWait > 0 {
			sc.MaxChallengeWait = time.Duration(fc.Browser.MaxChallengeWait)
		}
	}
	if ic == nil {
		return nil
	}

	if len(fc.Gallery.Selectors) > 0 {
		selectors := make([]SelectorSpec, 0, len(fc.Gallery.Selectors))
		for _, s := range fc.Gallery.Selectors {
			if s.Kind == "" {
				s.Kind = SelectorCSS
			}
			if s.Kind != SelectorCSS && s.Kind != SelectorXPath {
				return fmt.Errorf("gallery selector %q: unknown kind %q", s.Expr, s.Kind)
			}
			if s.Expr == "" {
				return fmt.Errorf("gallery selector of kind %q has empty expr", s.Kind)
			}
			selectors = append(selectors, s)
		}
		ic.GallerySelectors = selectors
	}

	if fc.Gallery.LazySources != nil {
		ic.LazySources = *fc.Gallery.LazySources
	}

	overlay := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string{}, src...)
		}
	}
	overlay(&ic.PrimaryClasses, fc.Markers.PrimaryClasses)
	overlay(&ic.LargeMarkers, fc.Markers.Large)
	overlay(&ic.MediumMarkers, fc.Markers.Medium)
	overlay(&ic.ThumbMarkers, fc.Markers.Thumb)
	overlay(&ic.ThumbPathMarkers, fc.Markers.ThumbPath)
	overlay(&ic.AltPositiveMarkers, fc.Markers.AltPositive)
	overlay(&ic.AltLogoMarkers, fc.Markers.AltLogo)

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	w := &ic.Weights
	setInt(&w.PrimaryClass, fc.Weights.PrimaryClass)
	setInt(&w.LargeHint, fc.Weights.LargeHint)
	setInt(&w.MediumHint, fc.Weights.MediumHint)
	setInt(&w.AltPositive, fc.Weights.AltPositive)
	setInt(&w.ThumbHint, fc.Weights.ThumbHint)
	setInt(&w.ThumbPath, fc.Weights.ThumbPath)
	setInt(&w.AltLogo, fc.Weights.AltLogo)

	if err := w.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	return nil
}
