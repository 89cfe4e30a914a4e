package pose

import (
	"math"
	"testing"
)

func TestSyntheticFrameShape(t *testing.T) {
	for _, model := range []Model{ModelCOCO, ModelExtended} {
		t.Run(string(model), func(t *testing.T) {
			gen := NewSyntheticGenerator(model)
			gen.Seed(7)

			frame, err := gen.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if frame.Model != model {
				t.Errorf("frame model = %q, want %q", frame.Model, model)
			}
			if len(frame.Poses) != 1 {
				t.Fatalf("pose count = %d, want 1", len(frame.Poses))
			}
			p := frame.Poses[0]
			if len(p.Keypoints) != model.KeypointCount() {
				t.Errorf("keypoint count = %d, want %d", len(p.Keypoints), model.KeypointCount())
			}
			if p.TrackID != "syn-001" {
				t.Errorf("track ID = %q, want syn-001", p.TrackID)
			}
			if p.Box == nil {
				t.Fatal("bounding box is nil")
			}
			if p.Box.W <= 0 || p.Box.H <= 0 {
				t.Errorf("bounding box %+v has non-positive size", *p.Box)
			}
			for i, k := range p.Keypoints {
				if k.Confidence <= 0 || k.Confidence > 1 {
					t.Errorf("keypoint %d confidence = %v, want (0,1]", i, k.Confidence)
				}
			}
		})
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	a := NewSyntheticGenerator(ModelCOCO)
	b := NewSyntheticGenerator(ModelCOCO)
	a.Seed(42)
	b.Seed(42)
	b.startNs = a.startNs

	for i := 0; i < 20; i++ {
		fa, err := a.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		fb, err := b.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if fa.Index != fb.Index {
			t.Fatalf("frame %d: index mismatch %d vs %d", i, fa.Index, fb.Index)
		}
		for j := range fa.Poses[0].Keypoints {
			ka := fa.Poses[0].Keypoints[j]
			kb := fb.Poses[0].Keypoints[j]
			if ka.X != kb.X || ka.Y != kb.Y || ka.Confidence != kb.Confidence {
				t.Fatalf("frame %d keypoint %d differs: %+v vs %+v", i, j, ka, kb)
			}
		}
	}
}

func TestSyntheticTimestampsMonotonic(t *testing.T) {
	gen := NewSyntheticGenerator(ModelCOCO)
	gen.Seed(1)

	var prev int64
	for i := 0; i < 10; i++ {
		frame, err := gen.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Index != i {
			t.Errorf("frame index = %d, want %d", frame.Index, i)
		}
		if i > 0 && frame.TimestampNanos <= prev {
			t.Errorf("frame %d timestamp %d not after %d", i, frame.TimestampNanos, prev)
		}
		prev = frame.TimestampNanos
	}
}

func TestSyntheticExtendedVirtualFrame(t *testing.T) {
	gen := NewSyntheticGenerator(ModelExtended)
	gen.Seed(3)
	gen.NoisePx = 0

	// Across a full lap every keypoint should stay inside the virtual
	// input frame the extended model reports in.
	for i := 0; i < 300; i++ {
		frame, err := gen.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		for j, k := range frame.Poses[0].Keypoints {
			if k.X < 0 || k.X > VirtualFrameWidth || k.Y < 0 || k.Y > VirtualFrameHeight {
				t.Fatalf("frame %d keypoint %d at (%v,%v) outside virtual frame %vx%v",
					i, j, k.X, k.Y, VirtualFrameWidth, VirtualFrameHeight)
			}
		}
	}
}

func TestSyntheticWalkerMoves(t *testing.T) {
	gen := NewSyntheticGenerator(ModelCOCO)
	gen.Seed(5)
	gen.NoisePx = 0

	lm := LandmarksFor(ModelCOCO)
	first, err := gen.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	startNose := first.Poses[0].Keypoints[lm.Nose]

	var last *Frame
	for i := 0; i < 60; i++ {
		last, err = gen.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	endNose := last.Poses[0].Keypoints[lm.Nose]
	dist := math.Hypot(endNose.X-startNose.X, endNose.Y-startNose.Y)
	if dist < 10 {
		t.Errorf("walker moved only %.1fpx over 2s, want noticeable travel", dist)
	}
}

func TestSyntheticMultiplePeople(t *testing.T) {
	gen := NewSyntheticGenerator(ModelCOCO)
	gen.Seed(9)
	gen.PersonCount = 3

	frame, err := gen.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(frame.Poses) != 3 {
		t.Fatalf("pose count = %d, want 3", len(frame.Poses))
	}
	seen := map[string]bool{}
	for _, p := range frame.Poses {
		if seen[p.TrackID] {
			t.Errorf("duplicate track ID %q", p.TrackID)
		}
		seen[p.TrackID] = true
	}
}
