package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/session"
)

const (
	PreviewerName = "previewer"
	AnalyzerName  = "analyzer"
)

// Previewer streams every frame it can keep up with to the presenter as JPEG.
func Previewer(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) Sink {
	in := make(chan FrameData, svcs.CfgSvc.GetPreviewQueueSize())
	quality := svcs.CfgSvc.GetJPEGQuality()

	proc := func(frame FrameData) error {
		defer frame.Mat.Close()

		jpeg, err := EncodeJPEG(frame.Mat, quality)
		if err != nil {
			return err
		}
		svcs.Presenter.ShowFrame(jpeg)
		return nil
	}

	go runStreamer(canx, PreviewerName, source, in, errorStream, statsStream, proc)

	return Sink{Name: PreviewerName, In: in}
}

// Analyzer receives the sampled frames only, encodes them as data URLs and
// hands them to the session without waiting for the vision endpoint.
func Analyzer(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) Sink {
	in := make(chan FrameData, svcs.CfgSvc.GetAnalysisQueueSize())
	quality := svcs.CfgSvc.GetJPEGQuality()
	sess := svcs.Session

	proc := func(frame FrameData) error {
		defer frame.Mat.Close()

		dataURL, err := EncodeDataURL(frame.Mat, quality)
		if err != nil {
			return err
		}

		if !sess.Offer(session.Sample{Index: frame.Index, DataURL: dataURL, Captured: frame.Timestamp}) {
			lgr.Logger.Debug(
				"analyzer busy, sampled frame skipped",
				slog.Int("frame", frame.Index),
			)
		}
		return nil
	}

	go runStreamer(canx, AnalyzerName, source, in, errorStream, statsStream, proc)

	sampler := sess.Sampler()
	return Sink{Name: AnalyzerName, In: in, Accepts: sampler.Selects}
}

// runStreamer processes frames in arrival order until cancelled, then releases
// whatever is still buffered.
func runStreamer(canx context.Context, name string, source model.Source, in chan FrameData, errorStream chan interface{}, statsStream chan interface{}, proc func(FrameData) error) {
	lgr.Logger.Info(
		"streamer initialized...",
		slog.String("streamer", name),
		slog.String("source", source.Name),
	)

	frames := 0
	errors := 0
	beginTime := time.Now()
	var totalProcTime time.Duration // Track total processing time

	defer func() {
		uptime := int64(time.Since(beginTime).Seconds())
		stats := model.StreamerStats{
			Name:   name,
			Source: source.Name,
			Frames: frames,
			Errors: errors,
			Uptime: uptime,
		}
		if uptime > 0 {
			stats.FPS = int(float64(frames) / float64(uptime))
		}
		if frames > 0 {
			stats.AvgProcTime = totalProcTime.Seconds() / float64(frames)
		}
		sendStats(statsStream, stats)
	}()

	for {
		select {
		case <-canx.Done():
			for {
				select {
				case f := <-in:
					f.Mat.Close()
				default:
					lgr.Logger.Info(
						"streamer context cancelled",
						slog.String("streamer", name),
					)
					return
				}
			}

		case f := <-in:
			start := time.Now()
			index := f.Index
			if err := proc(f); err != nil {
				errors++
				lgr.Logger.Warn(
					"streamer failed to process frame",
					slog.String("streamer", name),
					slog.Int("frame", index),
					slog.Any("error", err),
				)
				sendError(canx, errorStream, model.GenError("agent_"+name,
					err,
					map[string]interface{}{"frame": index},
					"error processing frame"))
				continue
			}
			frames++
			totalProcTime += time.Since(start)
		}
	}
}
