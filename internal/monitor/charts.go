package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/felo/sportai-web-sub011/internal/httputil"
)

// echartsAssetsHost is where chart pages load the ECharts JS bundle from.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridisColors is the color ramp used by the visual maps on the debug charts.
var viridisColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// handleActivityChart renders a simple bar chart of render throughput.
func (ws *WebServer) handleActivityChart(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		httputil.NotFound(w, "no render stats available")
		return
	}

	snap := ws.stats.GetLatestSnapshot()
	if snap == nil {
		snap = &StatsSnapshot{Timestamp: time.Now()}
	}

	x := []string{"Frames/s", "Poses/s", "Labels/s", "Dropped (recent)"}
	y := []opts.BarData{
		{Value: snap.FramesPerSec},
		{Value: snap.PosesPerSec},
		{Value: snap.LabelsPerSec},
		{Value: snap.DroppedCount},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Overlay Activity", Subtitle: snap.Timestamp.Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("activity", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleOrientationChart renders the facing angle timeline for one session.
// Points are colored by estimate confidence so low-trust stretches stand out.
// Query params:
//   - session_id (required)
//   - max_points (optional; default 5000) to reduce payload size
func (ws *WebServer) handleOrientationChart(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	maxPoints := 5000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	samples, err := ws.store.SamplesForSession(sessionID, 0)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get samples: %v", err))
		return
	}
	if len(samples) == 0 {
		httputil.NotFound(w, "no samples recorded for session")
		return
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(samples) > maxPoints {
		stride = int(math.Ceil(float64(len(samples)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(samples)/stride+1)
	maxFrame := float64(0)
	for i := 0; i < len(samples); i += stride {
		s := samples[i]
		if s.OrientationDeg == nil {
			continue
		}
		frame := float64(s.FrameIndex)
		if frame > maxFrame {
			maxFrame = frame
		}
		conf := 0.0
		if s.OrientationConf != nil {
			conf = *s.OrientationConf
		}
		data = append(data, opts.ScatterData{Value: []interface{}{frame, *s.OrientationDeg, conf}})
	}
	if len(data) == 0 {
		httputil.NotFound(w, "session has no facing estimates")
		return
	}

	pad := maxFrame * 1.02
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Facing Angle Timeline", Theme: "dark", Width: "1400px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Facing Angle Timeline", Subtitle: fmt.Sprintf("session=%s points=%d stride=%d", sessionID, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: pad, Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -180, Max: 180, Name: "Angle (deg)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)

	scatter.AddSeries("facing", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleAnchorChart renders recorded anchor positions in surface space,
// colored by frame index so the chart reads as a path over time.
// Query params:
//   - session_id (required)
//   - max_points (optional; default 5000)
func (ws *WebServer) handleAnchorChart(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	maxPoints := 5000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	samples, err := ws.store.SamplesForSession(sessionID, 0)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get samples: %v", err))
		return
	}

	stride := 1
	if len(samples) > maxPoints {
		stride = int(math.Ceil(float64(len(samples)) / float64(maxPoints)))
	}

	pts := make([]opts.ScatterData, 0, len(samples)/stride+1)
	maxX, maxY := 0.0, 0.0
	maxFrame := float64(1)
	for i := 0; i < len(samples); i += stride {
		s := samples[i]
		if s.AnchorX == nil || s.AnchorY == nil {
			continue
		}
		x := *s.AnchorX
		y := *s.AnchorY
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
		frame := float64(s.FrameIndex)
		if frame > maxFrame {
			maxFrame = frame
		}
		pts = append(pts, opts.ScatterData{Value: []interface{}{x, y, frame}})
	}
	if len(pts) == 0 {
		httputil.NotFound(w, "session has no anchor positions")
		return
	}

	padX := maxX * 1.05
	if padX == 0 {
		padX = 1.0
	}
	padY := maxY * 1.05
	if padY == 0 {
		padY = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Anchor Path", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Anchor Path", Subtitle: fmt.Sprintf("session=%s points=%d stride=%d", sessionID, len(pts), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: padX, Name: "X (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: padY, Name: "Y (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxFrame),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("anchors", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render anchors chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
