package videoio

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/felo/sportai-web-sub011/internal/monitoring"
	"github.com/felo/sportai-web-sub011/internal/overlay"
	"github.com/felo/sportai-web-sub011/internal/pose"
)

// Annotator re-renders a recorded pose log onto its source video and
// writes the annotated result. Frames are matched to log entries by frame
// index; video frames without a log entry pass through with only the
// accumulated trails drawn.
type Annotator struct {
	Video   string // source video path
	PoseLog string // JSONL detector log aligned by frame index
	Output  string // annotated output path; Codec decides the container

	Options overlay.Options
	Params  overlay.OrientationParams

	// TrailJoints selects which joints accumulate motion trails. Empty
	// means wrists and ankles of whatever model the log carries.
	TrailJoints   []int
	HistoryFrames int
	Codec         string // FOURCC, default XVID (pair with an .avi output)
	LogEvery      int    // progress cadence in frames, default 250
}

// Report summarizes one annotation run.
type Report struct {
	Frames     int     // video frames written
	PoseFrames int     // frames that had a matching log entry
	Width      int     // source video pixel width
	Height     int     // source video pixel height
	FPS        float64 // source frame rate carried to the output
}

// Run annotates the whole video. It stops early with ctx.Err() when the
// context is cancelled; frames written so far remain in the output.
func (a *Annotator) Run(ctx context.Context) (*Report, error) {
	reader, err := pose.OpenLog(a.PoseLog)
	if err != nil {
		return nil, fmt.Errorf("opening pose log: %w", err)
	}
	defer reader.Close()
	cursor := newLogCursor(reader)

	capture, err := gocv.VideoCaptureFile(a.Video)
	if err != nil {
		return nil, fmt.Errorf("opening video %s: %w", a.Video, err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	codec := a.Codec
	if codec == "" {
		codec = "XVID"
	}
	writer, err := gocv.VideoWriterFile(a.Output, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", a.Output, err)
	}
	defer writer.Close()

	logEvery := a.LogEvery
	if logEvery <= 0 {
		logEvery = 250
	}

	mat := gocv.NewMat()
	defer mat.Close()
	surface := NewMatSurface(&mat)

	tracker := overlay.NewOrientationTracker(a.Params)
	labels := overlay.LabelStateMap{}
	history := overlay.NewJointHistory(a.HistoryFrames)
	model := pose.ModelCOCO

	report := &Report{Width: width, Height: height, FPS: fps}

	for frameIndex := 0; ; frameIndex++ {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if ok := capture.Read(&mat); !ok {
			break
		}
		if mat.Empty() {
			continue
		}

		frame, err := cursor.FrameAt(frameIndex)
		if err != nil {
			return report, fmt.Errorf("reading pose log: %w", err)
		}

		in := overlay.FrameInput{
			Model:       model,
			VideoWidth:  float64(width),
			VideoHeight: float64(height),
		}
		if frame != nil {
			report.PoseFrames++
			if frame.Model.Valid() {
				model = frame.Model
				in.Model = model
			}
			in.Poses = frame.Poses
			if len(frame.Poses) > 0 {
				history.ObservePose(frame.Poses[0], a.trailJoints(model), a.Options.MinConfidence, frameIndex)
			}
		}
		in.Trajectories = history.Trajectories()

		overlay.RenderFrame(surface, in, a.Options, tracker, labels)

		if err := writer.Write(mat); err != nil {
			return report, fmt.Errorf("writing frame %d: %w", frameIndex, err)
		}
		report.Frames++

		if report.Frames%logEvery == 0 {
			monitoring.Logf("annotated %d frames (%d with poses)", report.Frames, report.PoseFrames)
		}
	}

	monitoring.Logf("annotation complete: %d frames, %d with poses, %dx%d @ %.1f fps",
		report.Frames, report.PoseFrames, report.Width, report.Height, report.FPS)
	return report, nil
}

func (a *Annotator) trailJoints(model pose.Model) []int {
	if len(a.TrailJoints) > 0 {
		return a.TrailJoints
	}
	lm := pose.LandmarksFor(model)
	return []int{lm.LeftWrist, lm.RightWrist, lm.LeftAnkle, lm.RightAnkle}
}
