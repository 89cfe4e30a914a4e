package monitor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/felo/sportai-web-sub011/internal/httputil"
)

func TestClientSessions(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusOK,
		`[{"session_id":"ses_a","model":"coco17","video_width":1280,"video_height":720,"frame_rate":30,"started_at_ns":100,"created_at_ns":100},
		  {"session_id":"ses_b","model":"extended33","video_width":1920,"video_height":1080,"frame_rate":25,"started_at_ns":200,"created_at_ns":200}]`)
	client := NewClient(sc, "http://localhost:8080")

	sessions, err := client.Sessions(context.Background(), "")
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "ses_a" || sessions[1].Model != "extended33" {
		t.Errorf("decoded sessions wrong: %+v", sessions)
	}

	req := sc.Request(0)
	if req == nil || req.URL.Path != "/api/sessions" {
		t.Fatalf("request path = %v", req)
	}
	if req.URL.Query().Get("model") != "" {
		t.Errorf("unfiltered list sent model param: %s", req.URL.RawQuery)
	}
}

func TestClientSessionsModelFilter(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusOK, `[]`)
	client := NewClient(sc, "http://localhost:8080")

	if _, err := client.Sessions(context.Background(), "coco17"); err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if got := sc.Request(0).URL.Query().Get("model"); got != "coco17" {
		t.Errorf("model param = %q, want coco17", got)
	}
}

func TestClientSessionDetail(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusOK,
		`{"session":{"session_id":"ses_a","model":"coco17","video_width":1280,"video_height":720,"frame_rate":30,"started_at_ns":1,"created_at_ns":1},"sample_count":42}`)
	client := NewClient(sc, "http://localhost:8080")

	detail, err := client.Session(context.Background(), "ses_a")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if detail.Session == nil || detail.Session.SessionID != "ses_a" {
		t.Errorf("session = %+v", detail.Session)
	}
	if detail.SampleCount != 42 {
		t.Errorf("sample count = %d, want 42", detail.SampleCount)
	}
	if got := sc.Request(0).URL.Query().Get("session_id"); got != "ses_a" {
		t.Errorf("session_id param = %q", got)
	}
}

func TestClientSamplesLimit(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusOK,
		`[{"sample_id":1,"session_id":"ses_a","frame_index":0,"timestamp_ns":10,"pose_count":1,"label_count":2,"orientation_deg":45.5}]`)
	client := NewClient(sc, "http://localhost:8080")

	samples, err := client.Samples(context.Background(), "ses_a", 500)
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if samples[0].OrientationDeg == nil || *samples[0].OrientationDeg != 45.5 {
		t.Errorf("orientation = %v", samples[0].OrientationDeg)
	}
	q := sc.Request(0).URL.Query()
	if q.Get("limit") != "500" {
		t.Errorf("limit param = %q, want 500", q.Get("limit"))
	}
}

func TestClientVersionAndHealth(t *testing.T) {
	sc := httputil.NewScriptedClient().
		Respond(http.StatusOK, `{"status":"ok"}`).
		Respond(http.StatusOK, `{"version":"1.2.0","git_sha":"abc123","build_time":"2026-01-01"}`)
	client := NewClient(sc, "http://localhost:8080")

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	info, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if info.Version != "1.2.0" || info.GitSHA != "abc123" {
		t.Errorf("version info = %+v", info)
	}
}

func TestClientSnapshot(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusOK,
		`{"model":"coco17","frame_index":77,"timestamp_ns":123,"pose_count":1,"label_count":3,"orientation_deg":-30}`)
	client := NewClient(sc, "http://localhost:8080")

	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.FrameIndex != 77 || snap.LabelCount != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.OrientationDeg == nil || *snap.OrientationDeg != -30 {
		t.Errorf("orientation = %v", snap.OrientationDeg)
	}
}

func TestClientSetLabelAndDelete(t *testing.T) {
	sc := httputil.NewScriptedClient().
		Respond(http.StatusOK, `{"ok":true}`).
		Respond(http.StatusOK, `{"ok":true}`)
	client := NewClient(sc, "http://localhost:8080")

	if err := client.SetLabel(context.Background(), "ses_a", "match point"); err != nil {
		t.Fatalf("SetLabel failed: %v", err)
	}
	if err := client.DeleteSession(context.Background(), "ses_a"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	label := sc.Request(0)
	if label.Method != http.MethodPost || label.URL.Path != "/api/session/label" {
		t.Errorf("label request = %s %s", label.Method, label.URL.Path)
	}
	if got := label.URL.Query().Get("label"); got != "match point" {
		t.Errorf("label param = %q", got)
	}
	del := sc.Request(1)
	if del.Method != http.MethodPost || del.URL.Path != "/api/session/delete" {
		t.Errorf("delete request = %s %s", del.Method, del.URL.Path)
	}
}

func TestClientErrorStatusSurfacesBody(t *testing.T) {
	sc := httputil.NewScriptedClient().Respond(http.StatusNotFound, `{"error":"session not found"}`)
	client := NewClient(sc, "http://localhost:8080")

	_, err := client.Session(context.Background(), "ses_missing")
	if err == nil {
		t.Fatal("expected error on 404")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("error = %v, want status and body surfaced", err)
	}
}

func TestClientTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	sc := httputil.NewScriptedClient().Fail(boom)
	client := NewClient(sc, "http://localhost:8080")

	if err := client.Health(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Health error = %v, want %v", err, boom)
	}
}

func TestNewClientDefaultsTransport(t *testing.T) {
	client := NewClient(nil, "http://localhost:8080")
	if client.HTTPClient == nil {
		t.Fatal("nil transport not defaulted")
	}
}
