package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// StatsSnapshot represents a point-in-time view of render throughput
type StatsSnapshot struct {
	FramesPerSec    float64
	PosesPerSec     float64
	LabelsPerSec    float64
	OrientationRate float64
	DroppedCount    int64
	Timestamp       time.Time
}

// RenderStats tracks render loop statistics with thread-safe operations
type RenderStats struct {
	mu             sync.Mutex
	frameCount     int64
	poseCount      int64
	labelCount     int64
	orientedCount  int64
	droppedCount   int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

// NewRenderStats creates a new RenderStats instance
func NewRenderStats() *RenderStats {
	now := time.Now()
	return &RenderStats{
		lastReset: now,
		startTime: now,
	}
}

// AddFrame records one rendered frame with its pose and label counts.
// oriented reports whether the frame produced a facing estimate.
func (rs *RenderStats) AddFrame(poses, labels int, oriented bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.frameCount++
	rs.poseCount += int64(poses)
	rs.labelCount += int64(labels)
	if oriented {
		rs.orientedCount++
	}
}

// AddDropped increments the dropped sample count
func (rs *RenderStats) AddDropped() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.droppedCount++
}

// GetAndReset returns current stats and resets counters
func (rs *RenderStats) GetAndReset() (frames, poses, labels, oriented, dropped int64, duration time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	now := time.Now()
	duration = now.Sub(rs.lastReset)
	frames = rs.frameCount
	poses = rs.poseCount
	labels = rs.labelCount
	oriented = rs.orientedCount
	dropped = rs.droppedCount

	rs.frameCount = 0
	rs.poseCount = 0
	rs.labelCount = 0
	rs.orientedCount = 0
	rs.droppedCount = 0
	rs.lastReset = now

	return
}

// LogStats logs formatted statistics and stores a snapshot for the web interface
func (rs *RenderStats) LogStats() {
	frames, poses, labels, oriented, dropped, duration := rs.GetAndReset()
	if frames > 0 || dropped > 0 {
		framesPerSec := float64(frames) / duration.Seconds()
		posesPerSec := float64(poses) / duration.Seconds()
		labelsPerSec := float64(labels) / duration.Seconds()

		orientationRate := 0.0
		if frames > 0 {
			orientationRate = float64(oriented) / float64(frames)
		}

		// Store snapshot for web interface
		rs.mu.Lock()
		rs.latestSnapshot = &StatsSnapshot{
			FramesPerSec:    framesPerSec,
			PosesPerSec:     posesPerSec,
			LabelsPerSec:    labelsPerSec,
			OrientationRate: orientationRate,
			DroppedCount:    dropped,
			Timestamp:       time.Now(),
		}
		rs.mu.Unlock()

		logMsg := fmt.Sprintf("Overlay stats (/sec): %.1f frames, %.1f poses, %s labels",
			framesPerSec, posesPerSec, FormatWithCommas(int64(labelsPerSec)))

		if dropped > 0 {
			logMsg += fmt.Sprintf(", %d samples dropped", dropped)
		}

		log.Print(logMsg)
	}
}

// GetUptime returns the elapsed time since the stats tracker was created
func (rs *RenderStats) GetUptime() time.Duration {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return time.Since(rs.startTime)
}

// GetLatestSnapshot returns the most recent stats snapshot for web interface
func (rs *RenderStats) GetLatestSnapshot() *StatsSnapshot {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.latestSnapshot == nil {
		return nil
	}
	// Return a copy to avoid race conditions
	snapshot := *rs.latestSnapshot
	return &snapshot
}

// FormatWithCommas formats a number with thousands separators
func FormatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}
