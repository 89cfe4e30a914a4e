package monitor

import "sync"

// FrameSnapshot is the latest rendered frame's computed overlay state, in
// the shape the JSON snapshot endpoint serves.
type FrameSnapshot struct {
	SessionID       string   `json:"session_id,omitempty"`
	Model           string   `json:"model"`
	FrameIndex      int64    `json:"frame_index"`
	TimestampNs     int64    `json:"timestamp_ns"`
	PoseCount       int      `json:"pose_count"`
	LabelCount      int      `json:"label_count"`
	OrientationDeg  *float64 `json:"orientation_deg,omitempty"`
	OrientationConf *float64 `json:"orientation_conf,omitempty"`
	AnchorX         *float64 `json:"anchor_x,omitempty"`
	AnchorY         *float64 `json:"anchor_y,omitempty"`
}

// Preview hands the render loop's latest frame to the web server: the
// snapshot for /api/snapshot and an encoded PNG for /preview.png. The
// render loop publishes, handlers read.
type Preview struct {
	mu   sync.RWMutex
	snap *FrameSnapshot
	png  []byte
}

// NewPreview creates an empty preview. Handlers report not-found until the
// first Publish.
func NewPreview() *Preview {
	return &Preview{}
}

// Publish replaces the current snapshot and PNG. A nil png keeps the
// previous image so sparse PNG encoding does not blank the preview.
func (p *Preview) Publish(snap FrameSnapshot, png []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = &snap
	if png != nil {
		p.png = png
	}
}

// Snapshot returns a copy of the latest snapshot, or nil before the first
// publish.
func (p *Preview) Snapshot() *FrameSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snap == nil {
		return nil
	}
	snap := *p.snap
	return &snap
}

// PNG returns the latest encoded preview image, or nil before the first
// image publish. Callers must not modify the returned bytes.
func (p *Preview) PNG() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.png
}
