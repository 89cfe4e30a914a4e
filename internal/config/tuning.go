package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felo/sportai-web-sub011/internal/overlay"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for overlay tuning
// parameters. The schema matches the /api/overlay/params endpoint so the
// same JSON can be used for both startup configuration and runtime
// updates.
type TuningConfig struct {
	// Orientation estimator params. The five weights sum to one; each
	// scales one directional cue's vote.
	OrientationShoulderWeight *float64 `json:"orientation_shoulder_weight,omitempty"`
	OrientationHipWeight      *float64 `json:"orientation_hip_weight,omitempty"`
	OrientationTwistWeight    *float64 `json:"orientation_twist_weight,omitempty"`
	OrientationWristWeight    *float64 `json:"orientation_wrist_weight,omitempty"`
	OrientationKneeWeight     *float64 `json:"orientation_knee_weight,omitempty"`
	KneeBendRatio             *float64 `json:"knee_bend_ratio,omitempty"`
	ShoulderReferenceRatio    *float64 `json:"shoulder_reference_ratio,omitempty"`

	// Orientation temporal smoothing params
	MomentumDecay *float64 `json:"momentum_decay,omitempty"`
	MomentumGain  *float64 `json:"momentum_gain,omitempty"`
	DeltaGain     *float64 `json:"delta_gain,omitempty"`
	MomentumApply *float64 `json:"momentum_apply,omitempty"`

	// Angle label params
	LabelMinStableFrames *int     `json:"label_min_stable_frames,omitempty"`
	LabelFontSize        *float64 `json:"label_font_size,omitempty"`
	LabelPadding         *float64 `json:"label_padding,omitempty"`
	LabelRadius          *float64 `json:"label_radius,omitempty"`

	// Render params
	MinKeypointConfidence   *float64 `json:"min_keypoint_confidence,omitempty"`
	TrajectoryHistoryFrames *int     `json:"trajectory_history_frames,omitempty"`
	SmoothingEnabled        *bool    `json:"smoothing_enabled,omitempty"`

	// Session recorder params
	RecordFlushInterval *string `json:"record_flush_interval,omitempty"` // duration string like "2s"
	RecordBatchSize     *int    `json:"record_batch_size,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	weights := []struct {
		name  string
		value *float64
	}{
		{"orientation_shoulder_weight", c.OrientationShoulderWeight},
		{"orientation_hip_weight", c.OrientationHipWeight},
		{"orientation_twist_weight", c.OrientationTwistWeight},
		{"orientation_wrist_weight", c.OrientationWristWeight},
		{"orientation_knee_weight", c.OrientationKneeWeight},
		{"knee_bend_ratio", c.KneeBendRatio},
		{"momentum_decay", c.MomentumDecay},
		{"momentum_gain", c.MomentumGain},
		{"delta_gain", c.DeltaGain},
		{"momentum_apply", c.MomentumApply},
		{"min_keypoint_confidence", c.MinKeypointConfidence},
	}
	for _, w := range weights {
		if w.value != nil && (*w.value < 0 || *w.value > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", w.name, *w.value)
		}
	}

	if c.ShoulderReferenceRatio != nil && *c.ShoulderReferenceRatio <= 0 {
		return fmt.Errorf("shoulder_reference_ratio must be positive, got %f", *c.ShoulderReferenceRatio)
	}

	if c.LabelMinStableFrames != nil && *c.LabelMinStableFrames < 0 {
		return fmt.Errorf("label_min_stable_frames must be non-negative, got %d", *c.LabelMinStableFrames)
	}
	if c.LabelFontSize != nil && *c.LabelFontSize <= 0 {
		return fmt.Errorf("label_font_size must be positive, got %f", *c.LabelFontSize)
	}
	if c.LabelRadius != nil && *c.LabelRadius <= 0 {
		return fmt.Errorf("label_radius must be positive, got %f", *c.LabelRadius)
	}

	if c.TrajectoryHistoryFrames != nil && *c.TrajectoryHistoryFrames < 2 {
		return fmt.Errorf("trajectory_history_frames must be at least 2, got %d", *c.TrajectoryHistoryFrames)
	}

	// Validate RecordFlushInterval can be parsed if set
	if c.RecordFlushInterval != nil && *c.RecordFlushInterval != "" {
		if _, err := time.ParseDuration(*c.RecordFlushInterval); err != nil {
			return fmt.Errorf("invalid record_flush_interval '%s': %w", *c.RecordFlushInterval, err)
		}
	}
	if c.RecordBatchSize != nil && *c.RecordBatchSize < 1 {
		return fmt.Errorf("record_batch_size must be positive, got %d", *c.RecordBatchSize)
	}

	return nil
}

// OrientationParams assembles the estimator calibration from the config.
func (c *TuningConfig) OrientationParams() overlay.OrientationParams {
	return overlay.OrientationParams{
		ShoulderWeight: c.GetOrientationShoulderWeight(),
		HipWeight:      c.GetOrientationHipWeight(),
		TwistWeight:    c.GetOrientationTwistWeight(),
		WristWeight:    c.GetOrientationWristWeight(),
		KneeWeight:     c.GetOrientationKneeWeight(),
		KneeBendRatio:  c.GetKneeBendRatio(),
		ReferenceRatio: c.GetShoulderReferenceRatio(),
		MomentumDecay:  c.GetMomentumDecay(),
		MomentumGain:   c.GetMomentumGain(),
		DeltaGain:      c.GetDeltaGain(),
		MomentumApply:  c.GetMomentumApply(),
	}
}

// LabelParams assembles the angle label settings from the config.
func (c *TuningConfig) LabelParams() overlay.LabelParams {
	return overlay.LabelParams{
		MinStableFrames: c.GetLabelMinStableFrames(),
		FontSize:        c.GetLabelFontSize(),
		Padding:         c.GetLabelPadding(),
		Radius:          c.GetLabelRadius(),
	}
}

// GetOrientationShoulderWeight returns the orientation_shoulder_weight value or the default.
func (c *TuningConfig) GetOrientationShoulderWeight() float64 {
	if c == nil || c.OrientationShoulderWeight == nil {
		return 0.3 // default
	}
	return *c.OrientationShoulderWeight
}

// GetOrientationHipWeight returns the orientation_hip_weight value or the default.
func (c *TuningConfig) GetOrientationHipWeight() float64 {
	if c == nil || c.OrientationHipWeight == nil {
		return 0.25
	}
	return *c.OrientationHipWeight
}

// GetOrientationTwistWeight returns the orientation_twist_weight value or the default.
func (c *TuningConfig) GetOrientationTwistWeight() float64 {
	if c == nil || c.OrientationTwistWeight == nil {
		return 0.15
	}
	return *c.OrientationTwistWeight
}

// GetOrientationWristWeight returns the orientation_wrist_weight value or the default.
func (c *TuningConfig) GetOrientationWristWeight() float64 {
	if c == nil || c.OrientationWristWeight == nil {
		return 0.1
	}
	return *c.OrientationWristWeight
}

// GetOrientationKneeWeight returns the orientation_knee_weight value or the default.
func (c *TuningConfig) GetOrientationKneeWeight() float64 {
	if c == nil || c.OrientationKneeWeight == nil {
		return 0.2
	}
	return *c.OrientationKneeWeight
}

// GetKneeBendRatio returns the knee_bend_ratio value or the default.
func (c *TuningConfig) GetKneeBendRatio() float64 {
	if c == nil || c.KneeBendRatio == nil {
		return 0.15
	}
	return *c.KneeBendRatio
}

// GetShoulderReferenceRatio returns the shoulder_reference_ratio value or the default.
func (c *TuningConfig) GetShoulderReferenceRatio() float64 {
	if c == nil || c.ShoulderReferenceRatio == nil {
		return 0.8
	}
	return *c.ShoulderReferenceRatio
}

// GetMomentumDecay returns the momentum_decay value or the default.
func (c *TuningConfig) GetMomentumDecay() float64 {
	if c == nil || c.MomentumDecay == nil {
		return 0.7
	}
	return *c.MomentumDecay
}

// GetMomentumGain returns the momentum_gain value or the default.
func (c *TuningConfig) GetMomentumGain() float64 {
	if c == nil || c.MomentumGain == nil {
		return 0.3
	}
	return *c.MomentumGain
}

// GetDeltaGain returns the delta_gain value or the default.
func (c *TuningConfig) GetDeltaGain() float64 {
	if c == nil || c.DeltaGain == nil {
		return 0.4
	}
	return *c.DeltaGain
}

// GetMomentumApply returns the momentum_apply value or the default.
func (c *TuningConfig) GetMomentumApply() float64 {
	if c == nil || c.MomentumApply == nil {
		return 0.2
	}
	return *c.MomentumApply
}

// GetLabelMinStableFrames returns the label_min_stable_frames value or the default.
func (c *TuningConfig) GetLabelMinStableFrames() int {
	if c == nil || c.LabelMinStableFrames == nil {
		return 10
	}
	return *c.LabelMinStableFrames
}

// GetLabelFontSize returns the label_font_size value or the default.
func (c *TuningConfig) GetLabelFontSize() float64 {
	if c == nil || c.LabelFontSize == nil {
		return 14
	}
	return *c.LabelFontSize
}

// GetLabelPadding returns the label_padding value or the default.
func (c *TuningConfig) GetLabelPadding() float64 {
	if c == nil || c.LabelPadding == nil {
		return 4
	}
	return *c.LabelPadding
}

// GetLabelRadius returns the label_radius value or the default.
func (c *TuningConfig) GetLabelRadius() float64 {
	if c == nil || c.LabelRadius == nil {
		return 28
	}
	return *c.LabelRadius
}

// GetMinKeypointConfidence returns the min_keypoint_confidence value or the default.
func (c *TuningConfig) GetMinKeypointConfidence() float64 {
	if c == nil || c.MinKeypointConfidence == nil {
		return 0.3
	}
	return *c.MinKeypointConfidence
}

// GetTrajectoryHistoryFrames returns the trajectory_history_frames value or the default.
func (c *TuningConfig) GetTrajectoryHistoryFrames() int {
	if c == nil || c.TrajectoryHistoryFrames == nil {
		return 30
	}
	return *c.TrajectoryHistoryFrames
}

// GetSmoothingEnabled returns the smoothing_enabled value or the default.
func (c *TuningConfig) GetSmoothingEnabled() bool {
	if c == nil || c.SmoothingEnabled == nil {
		return true
	}
	return *c.SmoothingEnabled
}

// GetRecordFlushInterval parses and returns the RecordFlushInterval as a time.Duration.
func (c *TuningConfig) GetRecordFlushInterval() time.Duration {
	if c == nil || c.RecordFlushInterval == nil || *c.RecordFlushInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.RecordFlushInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetRecordBatchSize returns the record_batch_size value or the default.
func (c *TuningConfig) GetRecordBatchSize() int {
	if c == nil || c.RecordBatchSize == nil {
		return 64
	}
	return *c.RecordBatchSize
}
