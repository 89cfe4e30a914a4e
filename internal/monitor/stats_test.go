package monitor

import (
	"sync"
	"testing"
	"time"
)

func TestNewRenderStats(t *testing.T) {
	stats := NewRenderStats()

	if stats == nil {
		t.Fatal("NewRenderStats returned nil")
	}

	// Check that uptime is recent
	uptime := stats.GetUptime()
	if uptime > 100*time.Millisecond {
		t.Errorf("Uptime too large for new stats: %v", uptime)
	}
}

func TestRenderStats_AddFrame(t *testing.T) {
	stats := NewRenderStats()

	stats.AddFrame(2, 3, true)
	stats.AddFrame(1, 0, false)

	frames, poses, labels, oriented, dropped, duration := stats.GetAndReset()

	if frames != 2 {
		t.Errorf("Expected 2 frames, got %d", frames)
	}

	if poses != 3 {
		t.Errorf("Expected 3 poses, got %d", poses)
	}

	if labels != 3 {
		t.Errorf("Expected 3 labels, got %d", labels)
	}

	if oriented != 1 {
		t.Errorf("Expected 1 oriented frame, got %d", oriented)
	}

	if dropped != 0 {
		t.Errorf("Expected 0 dropped samples, got %d", dropped)
	}

	if duration <= 0 {
		t.Errorf("Expected positive duration, got %v", duration)
	}
}

func TestRenderStats_AddDropped(t *testing.T) {
	stats := NewRenderStats()

	stats.AddDropped()
	stats.AddDropped()

	frames, _, _, _, dropped, _ := stats.GetAndReset()

	if dropped != 2 {
		t.Errorf("Expected 2 dropped samples, got %d", dropped)
	}

	if frames != 0 {
		t.Errorf("Expected 0 frames, got %d", frames)
	}
}

func TestRenderStats_GetAndReset(t *testing.T) {
	stats := NewRenderStats()

	stats.AddFrame(1, 2, true)
	stats.AddDropped()

	frames1, poses1, labels1, oriented1, dropped1, duration1 := stats.GetAndReset()

	if frames1 != 1 || poses1 != 1 || labels1 != 2 || oriented1 != 1 || dropped1 != 1 {
		t.Errorf("First GetAndReset: expected (1, 1, 2, 1, 1), got (%d, %d, %d, %d, %d)",
			frames1, poses1, labels1, oriented1, dropped1)
	}

	if duration1 <= 0 {
		t.Errorf("Expected positive duration, got %v", duration1)
	}

	// Second call should return zeros
	frames2, poses2, labels2, oriented2, dropped2, duration2 := stats.GetAndReset()

	if frames2 != 0 || poses2 != 0 || labels2 != 0 || oriented2 != 0 || dropped2 != 0 {
		t.Errorf("Second GetAndReset: expected all zeros, got (%d, %d, %d, %d, %d)",
			frames2, poses2, labels2, oriented2, dropped2)
	}

	if duration2 <= 0 {
		t.Errorf("Expected positive duration even after reset, got %v", duration2)
	}
}

func TestRenderStats_LogStats(t *testing.T) {
	stats := NewRenderStats()

	stats.AddFrame(2, 4, true)
	stats.AddFrame(2, 4, true)

	stats.LogStats()

	// Check that snapshot was created
	snapshot := stats.GetLatestSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after LogStats, got nil")
	}

	if snapshot.FramesPerSec <= 0 {
		t.Errorf("Expected positive frames per sec, got %f", snapshot.FramesPerSec)
	}

	if snapshot.PosesPerSec <= 0 {
		t.Errorf("Expected positive poses per sec, got %f", snapshot.PosesPerSec)
	}

	if snapshot.LabelsPerSec <= 0 {
		t.Errorf("Expected positive labels per sec, got %f", snapshot.LabelsPerSec)
	}

	if snapshot.OrientationRate != 1.0 {
		t.Errorf("Expected orientation rate 1.0, got %f", snapshot.OrientationRate)
	}
}

func TestRenderStats_LogStatsPartialOrientation(t *testing.T) {
	stats := NewRenderStats()

	stats.AddFrame(1, 0, true)
	stats.AddFrame(1, 0, false)
	stats.AddFrame(1, 0, false)
	stats.AddFrame(1, 0, false)

	stats.LogStats()

	snapshot := stats.GetLatestSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after LogStats, got nil")
	}

	if snapshot.OrientationRate != 0.25 {
		t.Errorf("Expected orientation rate 0.25, got %f", snapshot.OrientationRate)
	}
}

func TestRenderStats_GetLatestSnapshot(t *testing.T) {
	stats := NewRenderStats()

	// Initially should return nil
	snapshot := stats.GetLatestSnapshot()
	if snapshot != nil {
		t.Error("Expected nil snapshot initially, got non-nil")
	}

	stats.AddFrame(1, 0, false)
	stats.LogStats()

	// Now should have snapshot
	snapshot = stats.GetLatestSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after LogStats, got nil")
	}

	if snapshot.Timestamp.IsZero() {
		t.Error("Expected snapshot timestamp to be set")
	}
}

func TestRenderStats_ThreadSafety(t *testing.T) {
	stats := NewRenderStats()

	var wg sync.WaitGroup
	numGoroutines := 50
	incrementsPerGoroutine := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsPerGoroutine; j++ {
				stats.AddFrame(2, 1, true)
				stats.AddDropped()

				// Also test reads during writes
				_ = stats.GetUptime()
				_ = stats.GetLatestSnapshot()
			}
		}()
	}

	wg.Wait()

	frames, poses, labels, oriented, dropped, _ := stats.GetAndReset()

	expectedFrames := int64(numGoroutines * incrementsPerGoroutine)
	expectedPoses := int64(numGoroutines * incrementsPerGoroutine * 2)
	expectedLabels := int64(numGoroutines * incrementsPerGoroutine)

	if frames != expectedFrames {
		t.Errorf("Expected frames %d, got %d", expectedFrames, frames)
	}

	if poses != expectedPoses {
		t.Errorf("Expected poses %d, got %d", expectedPoses, poses)
	}

	if labels != expectedLabels {
		t.Errorf("Expected labels %d, got %d", expectedLabels, labels)
	}

	if oriented != expectedFrames {
		t.Errorf("Expected oriented %d, got %d", expectedFrames, oriented)
	}

	if dropped != expectedFrames {
		t.Errorf("Expected dropped %d, got %d", expectedFrames, dropped)
	}
}

func TestFormatWithCommas(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
	}

	for _, test := range tests {
		result := FormatWithCommas(test.input)
		if result != test.expected {
			t.Errorf("FormatWithCommas(%d): expected %s, got %s",
				test.input, test.expected, result)
		}
	}
}

func BenchmarkRenderStats_AddFrame(b *testing.B) {
	stats := NewRenderStats()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			stats.AddFrame(2, 3, true)
		}
	})
}
