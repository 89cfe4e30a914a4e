package monitor

import (
	"fmt"
	"net/http"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/felo/sportai-web-sub011/internal/httputil"
	"github.com/felo/sportai-web-sub011/internal/session"
	"github.com/felo/sportai-web-sub011/internal/units"
)

// SessionSummary aggregates one session's recorded samples.
type SessionSummary struct {
	SessionID      string         `json:"session_id"`
	SampleCount    int            `json:"sample_count"`
	MeanPoseCount  float64        `json:"mean_pose_count"`
	MeanLabelCount float64        `json:"mean_label_count"`
	Facing         *FacingSummary `json:"facing,omitempty"`
	AnchorBounds   *AnchorBounds  `json:"anchor_bounds,omitempty"`
}

// FacingSummary describes the distribution of recorded facing estimates.
// MeanDeg is a circular mean: angles straddling the ±180° seam average on
// the short arc, in (−180,180].
type FacingSummary struct {
	Count      int     `json:"count"`
	MeanDeg    float64 `json:"mean_deg"`
	MinDeg     float64 `json:"min_deg"`
	MaxDeg     float64 `json:"max_deg"`
	MeanConf   float64 `json:"mean_conf"`
	StdDevConf float64 `json:"stddev_conf"`
}

// AnchorBounds is the axis-aligned envelope of recorded anchor positions
// in surface pixels.
type AnchorBounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// summarizeSamples reduces a session's samples to aggregate statistics.
func summarizeSamples(sessionID string, samples []*session.Sample) *SessionSummary {
	sum := &SessionSummary{SessionID: sessionID, SampleCount: len(samples)}
	if len(samples) == 0 {
		return sum
	}

	poseCounts := make([]float64, 0, len(samples))
	labelCounts := make([]float64, 0, len(samples))
	var facingDeg, facingRad, confs, xs, ys []float64
	for _, s := range samples {
		poseCounts = append(poseCounts, float64(s.PoseCount))
		labelCounts = append(labelCounts, float64(s.LabelCount))
		if s.OrientationDeg != nil {
			facingDeg = append(facingDeg, *s.OrientationDeg)
			facingRad = append(facingRad, units.DegToRad(*s.OrientationDeg))
			if s.OrientationConf != nil {
				confs = append(confs, *s.OrientationConf)
			}
		}
		if s.AnchorX != nil && s.AnchorY != nil {
			xs = append(xs, *s.AnchorX)
			ys = append(ys, *s.AnchorY)
		}
	}

	sum.MeanPoseCount = stat.Mean(poseCounts, nil)
	sum.MeanLabelCount = stat.Mean(labelCounts, nil)

	if len(facingDeg) > 0 {
		f := &FacingSummary{
			Count:   len(facingDeg),
			MeanDeg: units.NormalizeDeg(units.RadToDeg(stat.CircularMean(facingRad, nil))),
			MinDeg:  floats.Min(facingDeg),
			MaxDeg:  floats.Max(facingDeg),
		}
		if len(confs) > 0 {
			f.MeanConf = stat.Mean(confs, nil)
		}
		if len(confs) > 1 {
			f.StdDevConf = stat.StdDev(confs, nil)
		}
		sum.Facing = f
	}

	if len(xs) > 0 {
		sum.AnchorBounds = &AnchorBounds{
			MinX: floats.Min(xs),
			MaxX: floats.Max(xs),
			MinY: floats.Min(ys),
			MaxY: floats.Max(ys),
		}
	}
	return sum
}

// handleSessionSummary returns aggregate statistics over one session's
// recorded samples.
// Query params:
//
//	session_id (required)
func (ws *WebServer) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	if _, err := ws.store.GetSession(sessionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("get session: %v", err))
		}
		return
	}

	samples, err := ws.store.SamplesForSession(sessionID, 0)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get samples: %v", err))
		return
	}
	httputil.WriteJSONOK(w, summarizeSamples(sessionID, samples))
}
