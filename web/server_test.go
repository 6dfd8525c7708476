package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/vision"
	"github.com/khaledhikmat/vision-go/session"
)

type testConfig struct {
	config.IService
}

func (testConfig) GetVisionAPIKey() string { return "test-key" }

// newSession returns a session that already analyzed frames 0 and 30.
func newSession(t *testing.T) *session.Session {
	t.Helper()
	fake := vision.NewFake()
	fake.AnalyzeFunc = func(context.Context, string, string, string) (string, error) {
		return "a cat", nil
	}

	sess, err := session.New(testConfig{IService: config.NewHardCoded()}, fake)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.Offer(session.Sample{Index: 0})
	sess.Offer(session.Sample{Index: 30})
	sess.Close()
	return sess
}

func get(t *testing.T, s *Server, path string) (int, string, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestHealthz(t *testing.T) {
	s := NewServer("0", newSession(t))
	if code, _, body := get(t, s, "/healthz"); code != 200 || body != "ok" {
		t.Errorf("healthz = %d %q", code, body)
	}
}

func TestResultsRoutes(t *testing.T) {
	sess := newSession(t)
	s := NewServer("0", sess)

	code, _, body := get(t, s, "/api/results")
	if code != 200 {
		t.Fatalf("status = %d", code)
	}
	var entries []model.AnalysisResult
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 || entries[0].FrameIndex != 0 || entries[1].FrameIndex != 30 {
		t.Errorf("entries = %+v", entries)
	}

	_, _, text := get(t, s, "/api/results/text")
	if text != "Frame 0: a cat\nFrame 30: a cat" {
		t.Errorf("text = %q", text)
	}
}

func TestStatusRoute(t *testing.T) {
	sess := newSession(t)
	s := NewServer("0", sess)

	_, _, body := get(t, s, "/api/status")
	var status StatusResponse
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Session != sess.ID || status.State != session.StateClosed || status.Stride != 30 {
		t.Errorf("status = %+v", status)
	}
	if status.Stats.Analyzed != 2 {
		t.Errorf("analyzed = %d", status.Stats.Analyzed)
	}
	if strings.Contains(body, "test-key") {
		t.Error("status must not leak the credential")
	}
}

func TestPreviewSnapshot(t *testing.T) {
	s := NewServer("0", newSession(t))

	if code, _, _ := get(t, s, "/api/preview.jpg"); code != 204 {
		t.Errorf("expected 204 before the first frame, got %d", code)
	}

	s.ShowFrame([]byte{0xFF, 0xD8, 0xFF})

	code, ct, body := get(t, s, "/api/preview.jpg")
	if code != 200 || ct != "image/jpeg" || body != "\xFF\xD8\xFF" {
		t.Errorf("preview = %d %q %q", code, ct, body)
	}
}

func TestDashboardIsServed(t *testing.T) {
	s := NewServer("0", newSession(t))

	code, ct, body := get(t, s, "/")
	if code != 200 || !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("dashboard = %d %q", code, ct)
	}
	if !strings.Contains(body, "/ws/results") {
		t.Error("dashboard does not subscribe to results")
	}
	if !strings.Contains(body, "msg.frame <= lastFrame") {
		t.Error("dashboard does not drop stale results")
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s := NewServer("0", newSession(t))
	if code, _, _ := get(t, s, "/ws/results"); code != 426 {
		t.Errorf("expected 426, got %d", code)
	}
}

func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return "ws://" + ln.Addr().String()
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			return conn
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", url, err)
	return nil
}

func TestResultsWebsocket(t *testing.T) {
	s := NewServer("0", newSession(t))
	base := serve(t, s)

	conn := dial(t, base+"/ws/results")

	var snapshot ResultMessage
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Type != "snapshot" || snapshot.Frame != 30 || snapshot.Rendered != "Frame 0: a cat\nFrame 30: a cat" {
		t.Errorf("snapshot = %+v", snapshot)
	}

	s.ShowResult(model.AnalysisResult{FrameIndex: 60, Description: "a dog"}, "Frame 0: a cat\nFrame 30: a cat\nFrame 60: a dog")

	var update ResultMessage
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Type != "result" || update.Frame != 60 || update.Result == nil || update.Result.FrameIndex != 60 {
		t.Errorf("update = %+v", update)
	}
	if !strings.HasSuffix(update.Rendered, "Frame 60: a dog") {
		t.Errorf("rendered = %q", update.Rendered)
	}
}

func TestResultsSnapshotOfEmptyLog(t *testing.T) {
	sess, err := session.New(testConfig{IService: config.NewHardCoded()}, vision.NewFake())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	s := NewServer("0", sess)
	base := serve(t, s)

	conn := dial(t, base+"/ws/results")

	var snapshot ResultMessage
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Type != "snapshot" || snapshot.Frame != -1 || snapshot.Rendered != "" {
		t.Errorf("snapshot = %+v", snapshot)
	}

	// Frame 0 is newer than an empty log
	waitForViewers(t, s.resultsHub.ClientCount)
	s.ShowResult(model.AnalysisResult{FrameIndex: 0, Description: "a cat"}, "Frame 0: a cat")

	var update ResultMessage
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Frame != 0 || update.Rendered != "Frame 0: a cat" {
		t.Errorf("update = %+v", update)
	}
}

func TestPreviewAndErrorWebsockets(t *testing.T) {
	s := NewServer("0", newSession(t))
	s.ShowFrame([]byte{0xFF, 0xD8, 1})
	base := serve(t, s)

	preview := dial(t, base+"/ws/preview")
	kind, data, err := preview.ReadMessage()
	if err != nil {
		t.Fatalf("read preview: %v", err)
	}
	if kind != websocket.BinaryMessage || len(data) != 3 || data[2] != 1 {
		t.Errorf("preview message = %d %v", kind, data)
	}

	waitForViewers(t, s.previewHub.ClientCount)
	s.ShowFrame([]byte{0xFF, 0xD8, 2})
	_, data, err = preview.ReadMessage()
	if err != nil || data[2] != 2 {
		t.Errorf("live frame = %v, %v", data, err)
	}

	errs := dial(t, base+"/ws/errors")
	waitForViewers(t, s.errorsHub.ClientCount)

	s.ShowError(30, errors.New("vision: status 500: boom"))

	var msg ErrorMessage
	if err := errs.ReadJSON(&msg); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if msg.Frame != 30 || msg.Message != "vision: status 500: boom" {
		t.Errorf("error message = %+v", msg)
	}
}

func waitForViewers(t *testing.T, count func() int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
