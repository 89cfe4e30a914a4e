package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTuningConfig(t *testing.T) {
	// Create temporary directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	// Write test config with flat schema
	testJSON := `{
  "orientation_shoulder_weight": 0.4,
  "knee_bend_ratio": 0.2,
  "label_min_stable_frames": 6,
  "smoothing_enabled": false,
  "record_flush_interval": "5s"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load the config
	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.OrientationShoulderWeight == nil || *cfg.OrientationShoulderWeight != 0.4 {
		t.Errorf("Expected OrientationShoulderWeight 0.4, got %v", cfg.OrientationShoulderWeight)
	}
	if cfg.KneeBendRatio == nil || *cfg.KneeBendRatio != 0.2 {
		t.Errorf("Expected KneeBendRatio 0.2, got %v", cfg.KneeBendRatio)
	}
	if cfg.LabelMinStableFrames == nil || *cfg.LabelMinStableFrames != 6 {
		t.Errorf("Expected LabelMinStableFrames 6, got %v", cfg.LabelMinStableFrames)
	}
	if cfg.SmoothingEnabled == nil || *cfg.SmoothingEnabled != false {
		t.Errorf("Expected SmoothingEnabled false, got %v", cfg.SmoothingEnabled)
	}
	if cfg.RecordFlushInterval == nil || *cfg.RecordFlushInterval != "5s" {
		t.Errorf("Expected RecordFlushInterval '5s', got %v", cfg.RecordFlushInterval)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	// Write invalid JSON
	invalidJSON := `{
  "knee_bend_ratio": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name: "invalid shoulder weight (too low)",
			cfg: &TuningConfig{
				OrientationShoulderWeight: ptrFloat64(-0.1),
			},
			wantErr: true,
		},
		{
			name: "invalid knee bend ratio (too high)",
			cfg: &TuningConfig{
				KneeBendRatio: ptrFloat64(1.5),
			},
			wantErr: true,
		},
		{
			name: "zero reference ratio",
			cfg: &TuningConfig{
				ShoulderReferenceRatio: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "negative stable frames",
			cfg: &TuningConfig{
				LabelMinStableFrames: ptrInt(-1),
			},
			wantErr: true,
		},
		{
			name: "single point trajectory history",
			cfg: &TuningConfig{
				TrajectoryHistoryFrames: ptrInt(1),
			},
			wantErr: true,
		},
		{
			name: "invalid record flush interval",
			cfg: &TuningConfig{
				RecordFlushInterval: ptrString("invalid"),
			},
			wantErr: true,
		},
		{
			name: "zero record batch size",
			cfg: &TuningConfig{
				RecordBatchSize: ptrInt(0),
			},
			wantErr: true,
		},
		{
			name: "valid overrides",
			cfg: &TuningConfig{
				OrientationShoulderWeight: ptrFloat64(0.35),
				SmoothingEnabled:          ptrBool(false),
				RecordFlushInterval:       ptrString("500ms"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetRecordFlushInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "5 seconds",
			cfg: &TuningConfig{
				RecordFlushInterval: ptrString("5s"),
			},
			want: 5 * time.Second,
		},
		{
			name: "nil pointer returns default",
			cfg:  &TuningConfig{},
			want: 2 * time.Second,
		},
		{
			name: "empty string returns default",
			cfg: &TuningConfig{
				RecordFlushInterval: ptrString(""),
			},
			want: 2 * time.Second,
		},
		{
			name: "invalid duration returns default",
			cfg: &TuningConfig{
				RecordFlushInterval: ptrString("invalid"),
			},
			want: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetRecordFlushInterval()
			if got != tt.want {
				t.Errorf("GetRecordFlushInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.GetOrientationShoulderWeight() != 0.3 {
		t.Errorf("Expected 0.3, got %f", cfg.GetOrientationShoulderWeight())
	}
	if cfg.GetLabelMinStableFrames() != 10 {
		t.Errorf("Expected 10, got %d", cfg.GetLabelMinStableFrames())
	}
	if cfg.GetSmoothingEnabled() != true {
		t.Errorf("Expected true, got %v", cfg.GetSmoothingEnabled())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial config: only override one weight; everything else should keep defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialJSON := `{
  "orientation_knee_weight": 0.1
}`
	if err := os.WriteFile(configPath, []byte(partialJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}

	// Overridden value
	if cfg.GetOrientationKneeWeight() != 0.1 {
		t.Errorf("Expected overridden OrientationKneeWeight 0.1, got %f", cfg.GetOrientationKneeWeight())
	}
	// Default values should be preserved
	if cfg.GetOrientationShoulderWeight() != 0.3 {
		t.Errorf("Expected default OrientationShoulderWeight 0.3, got %f", cfg.GetOrientationShoulderWeight())
	}
	if cfg.GetShoulderReferenceRatio() != 0.8 {
		t.Errorf("Expected default ShoulderReferenceRatio 0.8, got %f", cfg.GetShoulderReferenceRatio())
	}
	if cfg.GetRecordFlushInterval() != 2*time.Second {
		t.Errorf("Expected default RecordFlushInterval 2s, got %v", cfg.GetRecordFlushInterval())
	}
	if cfg.GetTrajectoryHistoryFrames() != 30 {
		t.Errorf("Expected default TrajectoryHistoryFrames 30, got %d", cfg.GetTrajectoryHistoryFrames())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	// Create a file larger than 1MB
	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestOrientationParamsAssembly(t *testing.T) {
	cfg := &TuningConfig{
		OrientationShoulderWeight: ptrFloat64(0.5),
		MomentumDecay:             ptrFloat64(0.6),
	}
	params := cfg.OrientationParams()
	if params.ShoulderWeight != 0.5 {
		t.Errorf("ShoulderWeight = %f, want override 0.5", params.ShoulderWeight)
	}
	if params.MomentumDecay != 0.6 {
		t.Errorf("MomentumDecay = %f, want override 0.6", params.MomentumDecay)
	}
	// The rest falls back to defaults.
	if params.HipWeight != 0.25 {
		t.Errorf("HipWeight = %f, want default 0.25", params.HipWeight)
	}
	if params.ReferenceRatio != 0.8 {
		t.Errorf("ReferenceRatio = %f, want default 0.8", params.ReferenceRatio)
	}
}

func TestLabelParamsAssembly(t *testing.T) {
	cfg := &TuningConfig{
		LabelMinStableFrames: ptrInt(4),
		LabelRadius:          ptrFloat64(40),
	}
	params := cfg.LabelParams()
	if params.MinStableFrames != 4 {
		t.Errorf("MinStableFrames = %d, want 4", params.MinStableFrames)
	}
	if params.Radius != 40 {
		t.Errorf("Radius = %f, want 40", params.Radius)
	}
	if params.FontSize != 14 {
		t.Errorf("FontSize = %f, want default 14", params.FontSize)
	}
	if params.Padding != 4 {
		t.Errorf("Padding = %f, want default 4", params.Padding)
	}
}

func TestGetterDefaults(t *testing.T) {
	// Test that getter methods return expected defaults when pointers are nil
	cfg := &TuningConfig{} // empty config

	if cfg.GetOrientationShoulderWeight() != 0.3 {
		t.Errorf("GetOrientationShoulderWeight() = %f, want 0.3", cfg.GetOrientationShoulderWeight())
	}
	if cfg.GetOrientationHipWeight() != 0.25 {
		t.Errorf("GetOrientationHipWeight() = %f, want 0.25", cfg.GetOrientationHipWeight())
	}
	if cfg.GetOrientationTwistWeight() != 0.15 {
		t.Errorf("GetOrientationTwistWeight() = %f, want 0.15", cfg.GetOrientationTwistWeight())
	}
	if cfg.GetOrientationWristWeight() != 0.1 {
		t.Errorf("GetOrientationWristWeight() = %f, want 0.1", cfg.GetOrientationWristWeight())
	}
	if cfg.GetOrientationKneeWeight() != 0.2 {
		t.Errorf("GetOrientationKneeWeight() = %f, want 0.2", cfg.GetOrientationKneeWeight())
	}
	if cfg.GetKneeBendRatio() != 0.15 {
		t.Errorf("GetKneeBendRatio() = %f, want 0.15", cfg.GetKneeBendRatio())
	}
	if cfg.GetMinKeypointConfidence() != 0.3 {
		t.Errorf("GetMinKeypointConfidence() = %f, want 0.3", cfg.GetMinKeypointConfidence())
	}
	if cfg.GetRecordBatchSize() != 64 {
		t.Errorf("GetRecordBatchSize() = %d, want 64", cfg.GetRecordBatchSize())
	}
	if cfg.GetLabelFontSize() != 14 {
		t.Errorf("GetLabelFontSize() = %f, want 14", cfg.GetLabelFontSize())
	}
	if cfg.GetLabelPadding() != 4 {
		t.Errorf("GetLabelPadding() = %f, want 4", cfg.GetLabelPadding())
	}
	if cfg.GetLabelRadius() != 28 {
		t.Errorf("GetLabelRadius() = %f, want 28", cfg.GetLabelRadius())
	}
	if cfg.GetMomentumGain() != 0.3 {
		t.Errorf("GetMomentumGain() = %f, want 0.3", cfg.GetMomentumGain())
	}
	if cfg.GetDeltaGain() != 0.4 {
		t.Errorf("GetDeltaGain() = %f, want 0.4", cfg.GetDeltaGain())
	}
	if cfg.GetMomentumApply() != 0.2 {
		t.Errorf("GetMomentumApply() = %f, want 0.2", cfg.GetMomentumApply())
	}
	if cfg.GetMomentumDecay() != 0.7 {
		t.Errorf("GetMomentumDecay() = %f, want 0.7", cfg.GetMomentumDecay())
	}
}
