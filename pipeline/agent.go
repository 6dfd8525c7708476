package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/lgr"
)

// Agent runs capture for one source with the given streamers until the context
// is cancelled or the source fails. The session must already be started.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	errorStream chan interface{},
	statsStream chan interface{},
	source model.Source,
	streamers []Streamer) error {
	if svcs.Session == nil || svcs.Presenter == nil {
		return lgr.Errorf("agent requires a session and a presenter")
	}

	ctx := svcs.Session.Context(canxCtx)
	lgr.Logger.InfoContext(ctx,
		"agent starting....",
		slog.String("session", svcs.Session.ID),
		slog.String("source", source.Name),
		slog.String("framerType", source.FramerType),
		slog.String("device", source.Device),
		slog.Int("streamers", len(streamers)),
	)

	// Streamers outlive the framer so that nothing sends on a dead sink
	streamCtx, streamCancel := context.WithCancel(context.Background())
	defer streamCancel()

	sinks := make([]Sink, 0, len(streamers))
	for _, streamer := range streamers {
		sinks = append(sinks, streamer(streamCtx, svcs, source, errorStream, statsStream))
	}

	framerDone := framer(ctx, svcs, source, errorStream, statsStream, sinks)

	period := time.Duration(svcs.CfgSvc.GetStatsPeriodicTimeout()) * time.Second
	if period <= 0 {
		period = 30 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	// Monitor the framer and publish session stats
	for {
		select {
		case err := <-framerDone:
			sendStats(statsStream, svcs.Session.Stats())
			if err != nil {
				svcs.Presenter.ShowError(-1, err)
				return fmt.Errorf("capture ended: %w", err)
			}
			lgr.Logger.InfoContext(ctx,
				"agent context cancelled",
			)
			return nil

		case <-ticker.C:
			sendStats(statsStream, svcs.Session.Stats())
		}
	}
}

// SourceFromConfig describes the configured camera.
func SourceFromConfig(svcs ServicesFactory) model.Source {
	return model.Source{
		ID:         "camera-" + svcs.CfgSvc.GetCameraDevice(),
		Name:       "camera " + svcs.CfgSvc.GetCameraDevice(),
		Device:     svcs.CfgSvc.GetCameraDevice(),
		FramerType: svcs.CfgSvc.GetFramerType(),
	}
}
