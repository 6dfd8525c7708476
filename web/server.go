// Package web serves the browser dashboard: a live camera preview next to the
// growing list of frame descriptions.
package web

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/khaledhikmat/vision-go/hub"
	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/session"
)

//go:embed static
var static embed.FS

// ResultMessage is pushed on /ws/results after every analysis. Frame is the
// newest frame index the rendered block covers, -1 for an empty log; viewers
// drop result messages not newer than what they already show.
type ResultMessage struct {
	Type     string                `json:"type"`
	Frame    int                   `json:"frame"`
	Result   *model.AnalysisResult `json:"result,omitempty"`
	Rendered string                `json:"rendered"`
}

// ErrorMessage is pushed on /ws/errors for every failure shown to the operator.
type ErrorMessage struct {
	Type    string `json:"type"`
	Frame   int    `json:"frame"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

type StatusResponse struct {
	Session string             `json:"session"`
	State   session.State      `json:"state"`
	Prompt  string             `json:"prompt"`
	Stride  int                `json:"stride"`
	Stats   model.SessionStats `json:"stats"`
	Viewers int                `json:"viewers"`
}

// Server is the web presenter.
type Server struct {
	app  *fiber.App
	port string
	sess *session.Session

	previewHub *hub.Hub
	resultsHub *hub.Hub
	errorsHub  *hub.Hub

	frameMu   sync.RWMutex
	lastFrame []byte

	hubsOnce sync.Once
}

func NewServer(port string, sess *session.Session) *Server {
	s := &Server{
		port:       port,
		sess:       sess,
		previewHub: hub.New("preview"),
		resultsHub: hub.New("results"),
		errorsHub:  hub.New("errors"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "vision-go",
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/results", s.handleResults)
	api.Get("/results/text", s.handleResultsText)
	api.Get("/preview.jpg", s.handlePreview)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/errors", websocket.New(s.handleErrorsWS))

	app.Use("/", filesystem.New(filesystem.Config{
		Root:       httpFS(),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	s.app = app
	return s
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// RunHubs starts the broadcast hubs; they stop with ctx. Safe to call twice.
func (s *Server) RunHubs(ctx context.Context) {
	s.hubsOnce.Do(func() {
		go s.previewHub.Run(ctx)
		go s.resultsHub.Run(ctx)
		go s.errorsHub.Run(ctx)
	})
}

// Start serves on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.RunHubs(ctx)

	lgr.Logger.Info(
		"web dashboard listening",
		slog.String("address", "http://"+ln.Addr().String()),
	)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			lgr.Logger.Warn("web server shutdown", slog.Any("error", err))
		}
	}()

	err := s.app.Listener(ln)
	if err != nil && ctx.Err() != nil && errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// ShowFrame publishes a live preview JPEG.
func (s *Server) ShowFrame(jpeg []byte) {
	s.frameMu.Lock()
	s.lastFrame = jpeg
	s.frameMu.Unlock()

	if s.previewHub.ClientCount() > 0 {
		s.previewHub.BroadcastBinary(jpeg)
	}
}

// ShowResult publishes the newest result along with the whole rendered log.
func (s *Server) ShowResult(result model.AnalysisResult, rendered string) {
	s.resultsHub.BroadcastJSON(ResultMessage{
		Type:     "result",
		Frame:    result.FrameIndex,
		Result:   &result,
		Rendered: rendered,
	})
}

// ShowError tells the operator about a failed analysis or a capture failure.
// A negative frame index means the failure is not tied to a frame.
func (s *Server) ShowError(frameIndex int, err error) {
	s.errorsHub.BroadcastJSON(ErrorMessage{
		Type:    "error",
		Frame:   frameIndex,
		Message: err.Error(),
		Time:    time.Now().Format("15:04:05"),
	})
}
