package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRiskTuningDefaults(t *testing.T) {
	for _, tuning := range []*RiskTuning{nil, DefaultRiskTuning()} {
		if got := tuning.GetVolumeHigh(); got != 10 {
			t.Errorf("GetVolumeHigh() = %d, want 10", got)
		}
		if got := tuning.GetVolumeModerate(); got != 5 {
			t.Errorf("GetVolumeModerate() = %d, want 5", got)
		}
		if got := tuning.GetVolumeLow(); got != 3 {
			t.Errorf("GetVolumeLow() = %d, want 3", got)
		}
		if got := tuning.GetContagiousMultiplier(); got != 1.5 {
			t.Errorf("GetContagiousMultiplier() = %v, want 1.5", got)
		}
		if got := tuning.GetSevereCaseAlert(); got != 3 {
			t.Errorf("GetSevereCaseAlert() = %d, want 3", got)
		}
		if got := tuning.GetRepeatThreshold(); got != 3 {
			t.Errorf("GetRepeatThreshold() = %d, want 3", got)
		}
		if got := tuning.GetTrendMinCases(); got != 6 {
			t.Errorf("GetTrendMinCases() = %d, want 6", got)
		}
		if got := tuning.GetTrendRatio(); got != 1.5 {
			t.Errorf("GetTrendRatio() = %v, want 1.5", got)
		}
		if got := tuning.GetDefaultLookbackDays(); got != 30 {
			t.Errorf("GetDefaultLookbackDays() = %d, want 30", got)
		}
	}
}

func TestRiskTuningValidate(t *testing.T) {
	intp := func(v int) *int { return &v }
	floatp := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		tuning  RiskTuning
		wantErr bool
	}{
		{"defaults", RiskTuning{}, false},
		{"custom valid", RiskTuning{VolumeLow: intp(2), VolumeModerate: intp(4), VolumeHigh: intp(8)}, false},
		{"volume low below one", RiskTuning{VolumeLow: intp(0)}, true},
		{"moderate below low", RiskTuning{VolumeLow: intp(6)}, true},
		{"high below moderate", RiskTuning{VolumeHigh: intp(4)}, true},
		{"negative multiplier", RiskTuning{ContagiousMultiplier: floatp(-1)}, true},
		{"zero severe alert", RiskTuning{SevereCaseAlert: intp(0)}, true},
		{"repeat threshold of one", RiskTuning{RepeatThreshold: intp(1)}, true},
		{"trend min below two", RiskTuning{TrendMinCases: intp(1)}, true},
		{"trend ratio of one", RiskTuning{TrendRatio: floatp(1)}, true},
		{"zero lookback", RiskTuning{DefaultLookbackDays: intp(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tuning.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRiskTuningPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(`{"volume_high": 20, "trend_ratio": 2.0}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tuning, err := LoadRiskTuning(path)
	if err != nil {
		t.Fatalf("LoadRiskTuning: %v", err)
	}
	if got := tuning.GetVolumeHigh(); got != 20 {
		t.Errorf("GetVolumeHigh() = %d, want overridden 20", got)
	}
	if got := tuning.GetTrendRatio(); got != 2.0 {
		t.Errorf("GetTrendRatio() = %v, want overridden 2", got)
	}
	// Unset fields keep their defaults.
	if got := tuning.GetVolumeLow(); got != 3 {
		t.Errorf("GetVolumeLow() = %d, want default 3", got)
	}
}

func TestLoadRiskTuningRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "tuning.txt")
	os.WriteFile(txt, []byte(`{}`), 0o644)
	if _, err := LoadRiskTuning(txt); err == nil {
		t.Error("expected rejection of a non-json extension")
	}

	if _, err := LoadRiskTuning(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("expected error for a missing file")
	}

	invalid := filepath.Join(dir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"repeat_threshold": 1}`), 0o644)
	if _, err := LoadRiskTuning(invalid); err == nil {
		t.Error("expected rejection of a tuning that fails validation")
	}

	garbage := filepath.Join(dir, "garbage.json")
	os.WriteFile(garbage, []byte(`not json`), 0o644)
	if _, err := LoadRiskTuning(garbage); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadRiskTuningDefaultsFile(t *testing.T) {
	// The shipped defaults file must itself load and validate.
	path := filepath.Join("..", "..", DefaultConfigPath)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("defaults file not present: %v", err)
	}
	tuning, err := LoadRiskTuning(path)
	if err != nil {
		t.Fatalf("LoadRiskTuning(%s): %v", DefaultConfigPath, err)
	}
	if err := tuning.Validate(); err != nil {
		t.Errorf("shipped defaults invalid: %v", err)
	}
}
