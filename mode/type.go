package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/data"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/service/vision"
)

// Services are the long lived services a mode processor runs with.
type Services struct {
	CfgSvc    config.IService
	DataSvc   data.IService
	VisionSvc vision.IService
}

type Processor func(canxCtx context.Context, svcs Services) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	case model.StreamerStats:
		procStreamerStats(datasvc, stats)
	case model.SessionStats:
		procSessionStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procStreamerStats(datasvc data.IService, stats model.StreamerStats) {
	err := datasvc.NewStreamerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store streamer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procSessionStats(datasvc data.IService, stats model.SessionStats) {
	err := datasvc.NewSessionStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store session stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
