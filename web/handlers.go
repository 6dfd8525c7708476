package web

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/khaledhikmat/vision-go/hub"
)

func httpFS() http.FileSystem {
	return http.FS(static)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Session: s.sess.ID,
		State:   s.sess.State(),
		Prompt:  s.sess.Prompt(),
		Stride:  s.sess.Sampler().Stride(),
		Stats:   s.sess.Stats(),
		Viewers: s.previewHub.ClientCount(),
	})
}

func (s *Server) handleResults(c *fiber.Ctx) error {
	return c.JSON(s.sess.Log().Entries())
}

func (s *Server) handleResultsText(c *fiber.Ctx) error {
	return c.SendString(s.sess.Log().Render("\n"))
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	s.frameMu.RLock()
	frame := s.lastFrame
	s.frameMu.RUnlock()

	if len(frame) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(frame)
}

func (s *Server) handlePreviewWS(c *websocket.Conn) {
	var initial []hub.Message
	s.frameMu.RLock()
	if len(s.lastFrame) > 0 {
		initial = append(initial, hub.NewBinaryMessage(s.lastFrame))
	}
	s.frameMu.RUnlock()

	hub.NewClient(s.previewHub, c, initial...).Run()
}

// A new results client first receives the whole log rendered so far. Results
// queued before it registered may follow; they carry older frame indexes.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	rendered, last := s.sess.Log().RenderWithLast("\n")
	snapshot, _ := json.Marshal(ResultMessage{
		Type:     "snapshot",
		Frame:    last,
		Rendered: rendered,
	})
	hub.NewClient(s.resultsHub, c, hub.NewJSONMessage(snapshot)).Run()
}

func (s *Server) handleErrorsWS(c *websocket.Conn) {
	hub.NewClient(s.errorsHub, c).Run()
}
