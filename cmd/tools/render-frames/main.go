// Command render-frames draws a pose log onto numbered PNG frames using
// the pure-Go surface. Useful for eyeballing overlays without a video
// pipeline.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/felo/sportai-web-sub011/internal/overlay"
	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/raster"
)

func main() {
	input := flag.String("i", "", "pose log to render (required)")
	outDir := flag.String("o", "frames", "output directory")
	width := flag.Int("width", 1280, "surface width in pixels")
	height := flag.Int("height", 720, "surface height in pixels")
	every := flag.Int("every", 1, "write every Nth frame")
	limit := flag.Int("n", 0, "stop after N written frames (0 = all)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", *outDir, err)
	}

	reader, err := pose.OpenLog(*input)
	if err != nil {
		log.Fatalf("open %s: %v", *input, err)
	}
	defer reader.Close()

	opts := overlay.DefaultOptions()
	tracker := overlay.NewOrientationTracker(overlay.DefaultOrientationParams())
	labels := overlay.LabelStateMap{}
	history := overlay.NewJointHistory(0)
	surface := raster.NewImageSurface(*width, *height)

	model := pose.ModelCOCO
	written := 0
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read frame: %v", err)
		}

		if frame.Model.Valid() {
			model = frame.Model
		}
		// Trails observe every log frame even when only a subset is written.
		if len(frame.Poses) > 0 {
			lm := pose.LandmarksFor(model)
			joints := []int{lm.LeftWrist, lm.RightWrist, lm.LeftAnkle, lm.RightAnkle}
			history.ObservePose(frame.Poses[0], joints, opts.MinConfidence, frame.Index)
		}
		if *every > 1 && frame.Index%*every != 0 {
			continue
		}

		opts.AngleSpecs = overlay.DefaultAngleSpecs(model)
		in := overlay.FrameInput{
			Model:        model,
			VideoWidth:   frame.VideoWidth,
			VideoHeight:  frame.VideoHeight,
			Poses:        frame.Poses,
			Trajectories: history.Trajectories(),
		}
		if in.VideoWidth <= 0 || in.VideoHeight <= 0 {
			in.VideoWidth = float64(*width)
			in.VideoHeight = float64(*height)
		}
		overlay.RenderFrame(surface, in, opts, tracker, labels)

		name := filepath.Join(*outDir, fmt.Sprintf("frame_%06d.png", frame.Index))
		f, err := os.Create(name)
		if err != nil {
			log.Fatalf("create %s: %v", name, err)
		}
		if err := surface.EncodePNG(f); err != nil {
			f.Close()
			log.Fatalf("encode %s: %v", name, err)
		}
		f.Close()

		written++
		if written%50 == 0 {
			log.Printf("%d frames written", written)
		}
		if *limit > 0 && written >= *limit {
			break
		}
	}
	log.Printf("✓ Rendered %d frames to %s", written, *outDir)
}
