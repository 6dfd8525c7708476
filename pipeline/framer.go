package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strconv"
	"time"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"gocv.io/x/gocv"
)

// Pace of the synthetic framer, roughly a 30 fps camera
const randomFrameInterval = 33 * time.Millisecond

var ErrFrameRead = errors.New("frame read failed")

// framer starts capturing frames from the source and routes each one to the
// sinks that accept it. The returned channel yields once when capture ends:
// nil on cancellation, an error when the source failed.
func framer(canxCtx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, sinks []Sink) <-chan error {
	done := make(chan error, 1)

	if source.FramerType == "random" {
		go func() {
			done <- randomFramer(canxCtx, svcs, source, errorStream, statsStream, sinks)
		}()
		return done
	}

	go func() {
		done <- deviceFramer(canxCtx, svcs, source, errorStream, statsStream, sinks)
	}()
	return done
}

// captureDevice turns "0" into a device index and keeps anything else as a
// file or stream URL.
func captureDevice(device string) interface{} {
	if id, err := strconv.Atoi(device); err == nil {
		return id
	}
	return device
}

func deviceFramer(canxCtx context.Context, _ ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, sinks []Sink) error {
	webcam, err := gocv.OpenVideoCapture(captureDevice(source.Device))
	if err != nil {
		sendError(canxCtx, errorStream, model.GenError("agent_device_framer",
			err,
			map[string]interface{}{"device": source.Device},
			"error opening camera device"))
		return fmt.Errorf("open camera %q: %w", source.Device, err)
	}
	defer webcam.Close()

	stats := newFramerStats("deviceFramer", source)
	defer func() {
		sendStats(statsStream, stats.final())
	}()

	lgr.Logger.Info(
		"device framer started",
		slog.String("source", source.Name),
		slog.String("device", source.Device),
	)

	// Capture frames, route captured frames to streamers and monitor cancellations
	img := gocv.NewMat()
	defer img.Close()

	for index := 0; ; index++ {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"deviceFramer context cancelled",
			)
			return nil

		default:
			if ok := webcam.Read(&img); !ok || img.Empty() {
				stats.Errors++
				sendError(canxCtx, errorStream, model.GenError("agent_device_framer",
					ErrFrameRead,
					map[string]interface{}{"device": source.Device, "frame": index},
					"error reading frame from camera"))
				return fmt.Errorf("camera %q: %w at frame %d", source.Device, ErrFrameRead, index)
			}

			stats.Frames++
			route(sinks, img, index)
		}
	}
}

func randomFramer(canxCtx context.Context, _ ServicesFactory, source model.Source, _ chan interface{}, statsStream chan interface{}, sinks []Sink) error {
	stats := newFramerStats("randomFramer", source)
	defer func() {
		sendStats(statsStream, stats.final())
	}()

	ticker := time.NewTicker(randomFrameInterval)
	defer ticker.Stop()

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3) // 480x640 BGR
	defer img.Close()

	for index := 0; ; index++ {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"randomFramer context cancelled",
			)
			return nil

		case <-ticker.C:
			shade := float64(index % 256)
			img.SetTo(gocv.NewScalar(shade, 255-shade, 128, 0))
			gocv.PutText(&img, fmt.Sprintf("frame %d", index), image.Pt(20, 40),
				gocv.FontHersheySimplex, 1.0, color.RGBA{255, 255, 255, 0}, 2)

			stats.Frames++
			route(sinks, img, index)
		}
	}
}

// route sends a clone of img to every sink accepting index. A full sink loses
// the frame rather than stalling capture.
func route(sinks []Sink, img gocv.Mat, index int) {
	now := time.Now()
	for _, sink := range sinks {
		if sink.Accepts != nil && !sink.Accepts(index) {
			continue
		}

		frame := FrameData{Mat: img.Clone(), Index: index, Timestamp: now}
		select {
		case sink.In <- frame:
		default:
			frame.Mat.Close() // Crucial to close the image to avoid memory leaks
			lgr.Logger.Debug(
				"sink is behind, frame dropped",
				slog.String("sink", sink.Name),
				slog.Int("frame", index),
			)
		}
	}
}

type framerStats struct {
	model.FramerStats
	start time.Time
}

func newFramerStats(name string, source model.Source) *framerStats {
	return &framerStats{
		FramerStats: model.FramerStats{Name: name, Source: source.Name},
		start:       time.Now(),
	}
}

func (s *framerStats) final() model.FramerStats {
	out := s.FramerStats
	out.Uptime = int64(time.Since(s.start).Seconds())
	if out.Uptime > 0 {
		out.FPS = int(float64(out.Frames) / float64(out.Uptime))
	}
	return out
}
