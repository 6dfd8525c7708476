package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-go/mode"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/data"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/service/vision"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"assistant": mode.Assistant,
	"console":   mode.Console,
	"check":     mode.Check,
}

func main() {
	if err := newRootCmd(runMode).Execute(); err != nil {
		lgr.Logger.Error("vision-go exited", slog.Any("error", xerrors.New(err.Error())))
		os.Exit(1)
	}
}

func runMode(modeType string, opts options) error {
	modeProc, ok := modeProcessors[modeType]
	if !ok {
		return xerrors.Errorf("invalid mode: %s", modeType)
	}

	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			lgr.Logger.Info(
				"received kill signal",
				slog.Any("signal", sig),
			)
			canxFn()
		case <-canxCtx.Done():
		}
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return xerrors.Errorf("error loading .env file: %w", err)
		}
		if err == nil {
			lgr.Logger.Info("loaded env vars from .env file")
		}
	}

	// Create the services needed for the mode processor
	// Config service: env vars over hardcoded defaults, flags over both
	cfgSvc := config.WithOverrides(config.NewEnvVars(), opts.overrides)

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logFile, err := lgr.Init(cfgSvc.GetLogsFolder(), level)
	if err != nil {
		return xerrors.Errorf("error initializing logs: %w", err)
	}
	defer logFile.Close()

	svcs := mode.Services{
		CfgSvc:    cfgSvc,
		DataSvc:   data.NewFilesDB(cfgSvc),
		VisionSvc: vision.NewOpenRouter(cfgSvc),
	}

	lgr.Logger.Info(
		"vision-go starting",
		slog.String("mode", modeType),
		slog.String("endpoint", cfgSvc.GetVisionEndpoint()),
		slog.String("model", cfgSvc.GetVisionModel()),
		slog.Int("stride", cfgSvc.GetSampleStride()),
	)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	var procErr error

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"vision-go context cancelled",
		)

	case procErr = <-modeProcResult:
		if procErr != nil {
			lgr.Logger.Info(
				"vision-go mode processor exited",
				slog.Any("error", xerrors.New(procErr.Error())),
			)
		}
		return procErr
	}

	// Cancel the context if not already cancelled
	canxFn()

	lgr.Logger.Info(
		"vision-go is waiting for the mode processor to exit",
	)

	// The mode processor observes its own max shutdown time, this is a backstop
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"vision-go shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)
		return nil

	case procErr = <-modeProcResult:
		if procErr != nil {
			lgr.Logger.Info(
				"vision-go mode processor exited",
				slog.Any("error", xerrors.New(procErr.Error())),
			)
		}
		return procErr
	}
}
