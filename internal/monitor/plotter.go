package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/felo/sportai-web-sub011/internal/session"
)

// SessionPlotter renders a recorded session's samples to PNG files for
// offline inspection. GeneratePlots reads the samples once and writes one
// file per metric into the configured output directory.
type SessionPlotter struct {
	store     *session.Store
	outputDir string
}

// NewSessionPlotter creates a plotter that reads from the given store.
func NewSessionPlotter(store *session.Store, outputDir string) *SessionPlotter {
	return &SessionPlotter{
		store:     store,
		outputDir: outputDir,
	}
}

// OutputDir returns the directory plots are written to.
func (sp *SessionPlotter) OutputDir() string {
	return sp.outputDir
}

// GeneratePlots creates PNG files for the session's facing angle,
// estimate confidence, anchor path, and per-frame activity.
// Returns the number of plots generated and any error.
func (sp *SessionPlotter) GeneratePlots(sessionID string) (int, error) {
	if sp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	samples, err := sp.store.SamplesForSession(sessionID, 0)
	if err != nil {
		return 0, fmt.Errorf("load samples: %w", err)
	}
	if len(samples) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(sp.outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	anglePts := make(plotter.XYs, 0, len(samples))
	confPts := make(plotter.XYs, 0, len(samples))
	anchorPts := make(plotter.XYs, 0, len(samples))
	posePts := make(plotter.XYs, 0, len(samples))
	labelPts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		x := float64(s.FrameIndex)
		if s.OrientationDeg != nil {
			anglePts = append(anglePts, plotter.XY{X: x, Y: *s.OrientationDeg})
		}
		if s.OrientationConf != nil {
			confPts = append(confPts, plotter.XY{X: x, Y: *s.OrientationConf})
		}
		if s.AnchorX != nil && s.AnchorY != nil {
			anchorPts = append(anchorPts, plotter.XY{X: *s.AnchorX, Y: *s.AnchorY})
		}
		posePts = append(posePts, plotter.XY{X: x, Y: float64(s.PoseCount)})
		labelPts = append(labelPts, plotter.XY{X: x, Y: float64(s.LabelCount)})
	}

	colors := seriesColors(4)
	plotCount := 0

	if len(anglePts) > 0 {
		file := filepath.Join(sp.outputDir, "orientation.png")
		if err := sp.saveLinePlot(file, "Facing Angle", "Frame", "Angle (deg)", "facing", anglePts, colors[0]); err != nil {
			return plotCount, err
		}
		plotCount++
	}

	if len(confPts) > 0 {
		file := filepath.Join(sp.outputDir, "confidence.png")
		if err := sp.saveLinePlot(file, "Estimate Confidence", "Frame", "Confidence", "confidence", confPts, colors[1]); err != nil {
			return plotCount, err
		}
		plotCount++
	}

	if len(anchorPts) > 0 {
		if err := sp.saveAnchorPlot(anchorPts, colors[2]); err != nil {
			return plotCount, err
		}
		plotCount++
	}

	if err := sp.saveActivityPlot(posePts, labelPts, colors[3], colors[0]); err != nil {
		return plotCount, err
	}
	plotCount++

	return plotCount, nil
}

// saveLinePlot writes a single time-series line to a PNG file.
func (sp *SessionPlotter) saveLinePlot(file, title, xLabel, yLabel, legend string, pts plotter.XYs, c color.Color) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(legend, line)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s plot: %w", legend, err)
	}
	return nil
}

// saveAnchorPlot writes the anchor positions as a connected path in
// surface space. The Y axis is inverted so the plot matches screen
// orientation.
func (sp *SessionPlotter) saveAnchorPlot(pts plotter.XYs, c color.Color) error {
	p := plot.New()
	p.Title.Text = "Anchor Path"
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("anchor", line)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	file := filepath.Join(sp.outputDir, "anchors.png")
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save anchor plot: %w", err)
	}
	return nil
}

// saveActivityPlot writes per-frame pose and label counts on one plot.
func (sp *SessionPlotter) saveActivityPlot(posePts, labelPts plotter.XYs, poseColor, labelColor color.Color) error {
	p := plot.New()
	p.Title.Text = "Per-Frame Activity"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Count"

	poseLine, err := plotter.NewLine(posePts)
	if err != nil {
		return err
	}
	poseLine.Color = poseColor
	poseLine.Width = vg.Points(1)
	p.Add(poseLine)
	p.Legend.Add("poses", poseLine)

	labelLine, err := plotter.NewLine(labelPts)
	if err != nil {
		return err
	}
	labelLine.Color = labelColor
	labelLine.Width = vg.Points(1)
	p.Add(labelLine)
	p.Legend.Add("labels", labelLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	file := filepath.Join(sp.outputDir, "activity.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save activity plot: %w", err)
	}
	return nil
}

// seriesColors creates a palette of distinct colors for plot lines
func seriesColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir builds a timestamped output directory for plots.
// For file sources: <base>/<source_basename>/<timestamp>
// For live or synthetic captures: <base>/live_<timestamp>
func MakePlotOutputDir(baseDir, source string) string {
	ts := FormatTimestamp(time.Now())
	if source != "" {
		base := filepath.Base(source)
		ext := filepath.Ext(base)
		name := base[:len(base)-len(ext)]
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "live_"+ts)
}
