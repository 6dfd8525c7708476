package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/service/vision"
)

type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
	StateRejected State = "rejected"
	StateRunning  State = "running"
	StateClosed   State = "closed"
)

var (
	ErrCredentialRejected = errors.New("session: credential check failed")
	ErrAlreadyStarted     = errors.New("session: already started")
)

// Sample is a frame selected for analysis, already encoded as a data URL.
type Sample struct {
	Index    int
	DataURL  string
	Captured time.Time
}

// Observer is told about every analysis outcome.
type Observer interface {
	ShowResult(result model.AnalysisResult, rendered string)
	ShowError(frameIndex int, err error)
}

type Option func(*Session)

// WithObserver adds an observer. Observers are called from the analyzer
// goroutine and must not block for long.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// WithErrorStream reports per-frame failures as model.CustomError values.
func WithErrorStream(errorStream chan interface{}) Option {
	return func(s *Session) {
		s.errorStream = errorStream
	}
}

// WithJournal writes every result as a JSON line to w.
func WithJournal(w io.Writer) Option {
	return func(s *Session) {
		s.journal = w
	}
}

// Session owns the credential, the prompt and the result log of one operator
// session. Analysis runs on a single goroutine, so at most one vision request
// is in flight and results are appended in frame order.
type Session struct {
	ID string

	visionSvc  vision.IService
	credential string
	prompt     string
	sampler    Sampler
	log        *ResultLog

	observers   []Observer
	errorStream chan interface{}
	journal     io.Writer

	mu      sync.RWMutex
	state   State
	queue   chan Sample
	started time.Time
	wg      sync.WaitGroup

	lastIndex    int
	analyzed     atomic.Int64
	failed       atomic.Int64
	dropped      atomic.Int64
	totalLatency atomic.Int64
}

func New(cfgSvc config.IService, visionSvc vision.IService, opts ...Option) (*Session, error) {
	sampler, err := NewSampler(cfgSvc.GetSampleStride())
	if err != nil {
		return nil, err
	}

	queueSize := cfgSvc.GetAnalysisQueueSize()
	if queueSize < 1 {
		queueSize = 1
	}

	s := &Session{
		ID:         uuid.NewString(),
		visionSvc:  visionSvc,
		credential: cfgSvc.GetVisionAPIKey(),
		prompt:     strings.TrimSpace(cfgSvc.GetVisionPrompt()),
		sampler:    sampler,
		log:        NewResultLog(cfgSvc.GetResultLogCapacity()),
		state:      StateIdle,
		queue:      make(chan Sample, queueSize),
		lastIndex:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Observe adds an observer to a session that has not started yet. Presenters
// that need the session to build themselves register here instead of New.
func (s *Session) Observe(o Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrAlreadyStarted
	}
	s.observers = append(s.observers, o)
	return nil
}

func (s *Session) Sampler() Sampler {
	return s.sampler
}

func (s *Session) Log() *ResultLog {
	return s.log
}

func (s *Session) Prompt() string {
	return s.prompt
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Context returns ctx tagged with a span context derived from the session id,
// so every log record of the session shares one trace id.
func (s *Session) Context(ctx context.Context) context.Context {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return ctx
	}
	span := uuid.New()

	var spanID trace.SpanID
	copy(spanID[:], span[:8])

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(id),
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}

// Start validates the credential once and, if accepted, starts the analyzer.
// A rejected credential leaves the session permanently disabled.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateChecking
	s.mu.Unlock()

	ctx = s.Context(ctx)

	lgr.Logger.InfoContext(ctx,
		"checking vision credential",
		slog.String("session", s.ID),
	)

	if err := s.visionSvc.Check(ctx, s.credential); err != nil {
		s.mu.Lock()
		s.state = StateRejected
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrCredentialRejected, rejectionReason(err), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have run while the check was in flight.
	if s.state != StateChecking {
		return nil
	}
	s.state = StateRunning
	s.started = time.Now()

	s.wg.Add(1)
	go s.run(ctx)

	lgr.Logger.InfoContext(ctx,
		"session started",
		slog.String("session", s.ID),
		slog.Int("stride", s.sampler.Stride()),
		slog.String("prompt", s.prompt),
	)

	return nil
}

// Offer hands a sample to the analyzer without blocking. It returns false when
// the session is not running or the analyzer is still busy with earlier samples.
func (s *Session) Offer(sample Sample) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateRunning {
		return false
	}

	select {
	case s.queue <- sample:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Close stops intake, lets the analyzer finish already queued samples and
// waits for it. Cancelling the context given to Start aborts instead.
func (s *Session) Close() {
	s.mu.Lock()
	switch s.state {
	case StateRunning:
		close(s.queue)
		s.state = StateClosed
	case StateIdle, StateChecking:
		s.state = StateClosed
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			lgr.Logger.InfoContext(ctx,
				"session analyzer context cancelled",
				slog.String("session", s.ID),
			)
			return

		case sample, ok := <-s.queue:
			if !ok {
				return
			}
			s.analyze(ctx, sample)
		}
	}
}

func (s *Session) analyze(ctx context.Context, sample Sample) {
	if sample.Index <= s.lastIndex {
		lgr.Logger.WarnContext(ctx,
			"discarding out of order sample",
			slog.Int("frame", sample.Index),
			slog.Int("last", s.lastIndex),
		)
		return
	}
	s.lastIndex = sample.Index

	start := time.Now()
	description, err := s.visionSvc.Analyze(ctx, s.credential, sample.DataURL, s.prompt)
	latency := time.Since(start)

	if err != nil {
		s.failed.Add(1)
		lgr.Logger.WarnContext(ctx,
			"frame analysis failed",
			slog.Int("frame", sample.Index),
			slog.Any("error", err),
		)
		s.report(ctx, sample.Index, err)
		for _, o := range s.observers {
			o.ShowError(sample.Index, err)
		}
		return
	}

	result := model.AnalysisResult{
		SessionID:   s.ID,
		FrameIndex:  sample.Index,
		Description: description,
		LatencyMs:   latency.Milliseconds(),
		Timestamp:   time.Now(),
	}
	s.log.Append(result)
	s.analyzed.Add(1)
	s.totalLatency.Add(latency.Milliseconds())

	lgr.Logger.DebugContext(ctx,
		"frame analyzed",
		slog.Int("frame", sample.Index),
		slog.Duration("latency", latency),
	)

	s.writeJournal(ctx, result)

	rendered := s.log.Render("\n")
	for _, o := range s.observers {
		o.ShowResult(result, rendered)
	}
}

func (s *Session) report(ctx context.Context, index int, err error) {
	if s.errorStream == nil {
		return
	}

	select {
	case <-ctx.Done():
	case s.errorStream <- model.GenError("session_analyzer",
		err,
		map[string]interface{}{"session": s.ID, "frame": index},
		"error analyzing frame %d", index):
	}
}

func (s *Session) writeJournal(ctx context.Context, result model.AnalysisResult) {
	if s.journal == nil {
		return
	}

	line, err := json.Marshal(result)
	if err != nil {
		return
	}
	if _, err := s.journal.Write(append(line, '\n')); err != nil {
		lgr.Logger.WarnContext(ctx,
			"error writing analyses journal",
			slog.Any("error", err),
		)
	}
}

func (s *Session) Stats() model.SessionStats {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := model.SessionStats{
		ID:       s.ID,
		Analyzed: s.analyzed.Load(),
		Failed:   s.failed.Load(),
		Dropped:  s.dropped.Load(),
		Evicted:  s.log.Evicted(),
	}
	if stats.Analyzed > 0 {
		stats.AvgLatencyMs = float64(s.totalLatency.Load()) / float64(stats.Analyzed)
	}
	if !started.IsZero() {
		stats.Uptime = int64(time.Since(started).Seconds())
	}
	return stats
}

// rejectionReason tells a bad key apart from an endpoint that could not be
// reached or answered badly.
func rejectionReason(err error) string {
	var apiErr *vision.APIError
	switch {
	case errors.Is(err, vision.ErrMissingCredential):
		return "no API key configured"
	case errors.As(err, &apiErr) && apiErr.IsAuth():
		return "invalid API key"
	default:
		return "connection issue"
	}
}
