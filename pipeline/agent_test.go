package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/vision"
	"github.com/khaledhikmat/vision-go/session"
)

type testConfig struct {
	config.IService
}

func (testConfig) GetVisionAPIKey() string { return "test-key" }
func (testConfig) GetSampleStride() int    { return 5 }
func (testConfig) GetFramerType() string   { return "random" }

type recordingPresenter struct {
	mu      sync.Mutex
	frames  int
	results []model.AnalysisResult
	errors  []int
}

func (p *recordingPresenter) ShowFrame(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(jpeg) > 0 {
		p.frames++
	}
}

func (p *recordingPresenter) ShowResult(result model.AnalysisResult, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *recordingPresenter) ShowError(frameIndex int, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, frameIndex)
}

func (p *recordingPresenter) snapshot() (int, []model.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AnalysisResult, len(p.results))
	copy(out, p.results)
	return p.frames, out
}

func TestAgentWithRandomFramer(t *testing.T) {
	cfg := testConfig{IService: config.NewHardCoded()}

	var urls []string
	var mu sync.Mutex
	fake := vision.NewFake()
	fake.AnalyzeFunc = func(_ context.Context, _, dataURL, _ string) (string, error) {
		mu.Lock()
		urls = append(urls, dataURL)
		mu.Unlock()
		return "a test pattern", nil
	}

	sess, err := session.New(cfg, fake)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	presenter := &recordingPresenter{}
	svcs := ServicesFactory{CfgSvc: cfg, Session: sess, Presenter: presenter}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Agent(ctx, svcs, nil, nil, SourceFromConfig(svcs), []Streamer{Previewer, Analyzer})
	}()

	deadline := time.After(10 * time.Second)
	for {
		frames, results := presenter.snapshot()
		if frames >= 10 && len(results) >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out: frames=%d results=%d", frames, len(results))
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Agent: %v", err)
	}
	sess.Close()

	_, results := presenter.snapshot()
	last := -1
	for _, r := range results {
		if r.FrameIndex%5 != 0 {
			t.Errorf("frame %d is not on the sampling stride", r.FrameIndex)
		}
		if r.FrameIndex <= last {
			t.Errorf("frame %d after %d", r.FrameIndex, last)
		}
		last = r.FrameIndex
	}

	mu.Lock()
	defer mu.Unlock()
	for _, u := range urls {
		if !strings.HasPrefix(u, DataURLPrefix) {
			t.Errorf("analysis got a non data URL: %.30s", u)
		}
	}
}

func TestAgentRequiresSession(t *testing.T) {
	svcs := ServicesFactory{CfgSvc: config.NewHardCoded()}
	if err := Agent(context.Background(), svcs, nil, nil, model.Source{}, nil); err == nil {
		t.Fatal("expected an error without session and presenter")
	}
}

func TestDeviceFramerFailsOnMissingDevice(t *testing.T) {
	cfg := testConfig{IService: config.NewHardCoded()}
	sess, _ := session.New(cfg, vision.NewFake())
	sess.Start(context.Background())
	defer sess.Close()

	presenter := &recordingPresenter{}
	svcs := ServicesFactory{CfgSvc: cfg, Session: sess, Presenter: presenter}
	source := model.Source{Name: "missing", Device: "/nonexistent/video.avi", FramerType: "device"}

	errorStream := make(chan interface{}, 4)
	err := Agent(context.Background(), svcs, errorStream, nil, source, []Streamer{Previewer})
	if err == nil {
		t.Fatal("expected capture to end with an error")
	}
	if len(presenter.errors) != 1 {
		t.Errorf("presenter should be told once, got %v", presenter.errors)
	}
}

func TestCaptureDevice(t *testing.T) {
	if v, ok := captureDevice("0").(int); !ok || v != 0 {
		t.Errorf("captureDevice(0) = %v", captureDevice("0"))
	}
	if v, ok := captureDevice("rtsp://cam/stream").(string); !ok || v != "rtsp://cam/stream" {
		t.Errorf("captureDevice(url) = %v", captureDevice("rtsp://cam/stream"))
	}
}
