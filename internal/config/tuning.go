// Package config loads runtime tuning parameters for the outbreak
// risk scorer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical risk tuning defaults
// file. Fields omitted there fall back to the built-in defaults, so a
// missing file is not an error for callers that use DefaultRiskTuning.
const DefaultConfigPath = "config/risk.defaults.json"

// RiskTuning holds the thresholds behind the outbreak risk factors.
// All fields are optional; the Get* methods supply the defaults that
// match the documented scoring rules, so a partial config is safe.
type RiskTuning struct {
	// Case-volume thresholds for the +3/+2/+1 volume factor.
	VolumeHigh     *int `json:"volume_high,omitempty"`
	VolumeModerate *int `json:"volume_moderate,omitempty"`
	VolumeLow      *int `json:"volume_low,omitempty"`

	// ContagiousMultiplier scales the contagious-case count into
	// score points (floored).
	ContagiousMultiplier *float64 `json:"contagious_multiplier,omitempty"`

	// SevereCaseAlert is the severe/critical count that earns the
	// full +2 severity factor.
	SevereCaseAlert *int `json:"severe_case_alert,omitempty"`

	// RepeatThreshold is how often a single disease name must recur
	// within the window to trigger the repetition factor.
	RepeatThreshold *int `json:"repeat_threshold,omitempty"`

	// TrendMinCases gates the trend factor; TrendRatio is the strict
	// second-half/first-half ratio it must exceed.
	TrendMinCases *int     `json:"trend_min_cases,omitempty"`
	TrendRatio    *float64 `json:"trend_ratio,omitempty"`

	// DefaultLookbackDays applies when a risk query omits the window.
	DefaultLookbackDays *int `json:"default_lookback_days,omitempty"`
}

// DefaultRiskTuning returns a tuning with every field unset, which
// the getters resolve to the built-in defaults.
func DefaultRiskTuning() *RiskTuning {
	return &RiskTuning{}
}

func (t *RiskTuning) GetVolumeHigh() int {
	if t != nil && t.VolumeHigh != nil {
		return *t.VolumeHigh
	}
	return 10
}

func (t *RiskTuning) GetVolumeModerate() int {
	if t != nil && t.VolumeModerate != nil {
		return *t.VolumeModerate
	}
	return 5
}

func (t *RiskTuning) GetVolumeLow() int {
	if t != nil && t.VolumeLow != nil {
		return *t.VolumeLow
	}
	return 3
}

func (t *RiskTuning) GetContagiousMultiplier() float64 {
	if t != nil && t.ContagiousMultiplier != nil {
		return *t.ContagiousMultiplier
	}
	return 1.5
}

func (t *RiskTuning) GetSevereCaseAlert() int {
	if t != nil && t.SevereCaseAlert != nil {
		return *t.SevereCaseAlert
	}
	return 3
}

func (t *RiskTuning) GetRepeatThreshold() int {
	if t != nil && t.RepeatThreshold != nil {
		return *t.RepeatThreshold
	}
	return 3
}

func (t *RiskTuning) GetTrendMinCases() int {
	if t != nil && t.TrendMinCases != nil {
		return *t.TrendMinCases
	}
	return 6
}

func (t *RiskTuning) GetTrendRatio() float64 {
	if t != nil && t.TrendRatio != nil {
		return *t.TrendRatio
	}
	return 1.5
}

func (t *RiskTuning) GetDefaultLookbackDays() int {
	if t != nil && t.DefaultLookbackDays != nil {
		return *t.DefaultLookbackDays
	}
	return 30
}

// Validate rejects values that would make the scorer degenerate.
func (t *RiskTuning) Validate() error {
	if t.GetVolumeLow() < 1 || t.GetVolumeModerate() < t.GetVolumeLow() || t.GetVolumeHigh() < t.GetVolumeModerate() {
		return fmt.Errorf("volume thresholds must satisfy 1 <= low <= moderate <= high")
	}
	if t.GetContagiousMultiplier() < 0 {
		return fmt.Errorf("contagious_multiplier must be non-negative")
	}
	if t.GetSevereCaseAlert() < 1 {
		return fmt.Errorf("severe_case_alert must be at least 1")
	}
	if t.GetRepeatThreshold() < 2 {
		return fmt.Errorf("repeat_threshold must be at least 2")
	}
	if t.GetTrendMinCases() < 2 {
		return fmt.Errorf("trend_min_cases must be at least 2")
	}
	if t.GetTrendRatio() <= 1 {
		return fmt.Errorf("trend_ratio must exceed 1")
	}
	if t.GetDefaultLookbackDays() < 1 {
		return fmt.Errorf("default_lookback_days must be at least 1")
	}
	return nil
}

// LoadRiskTuning loads a RiskTuning from a JSON file. The path must
// carry a .json extension and stay under the size cap.
func LoadRiskTuning(path string) (*RiskTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	t := DefaultRiskTuning()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}
