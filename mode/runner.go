package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vision-go/pipeline"
	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/session"
)

const analysesLogMaxSizeMB = 10

// presentFn builds the presenter for a session. The returned serve func, if
// any, runs next to the agent until its context is cancelled.
type presentFn func(sess *session.Session) (pipeline.Presenter, func(context.Context) error)

// sessionRun runs one operator session: credential check, then capture and
// analysis until the context is cancelled or capture fails.
type sessionRun struct {
	name      string
	svcs      Services
	streamers []pipeline.Streamer
	present   presentFn
}

func (r sessionRun) run(canxCtx context.Context) error {
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	opts := []session.Option{session.WithErrorStream(errorStream)}

	// Results stay in memory unless the operator asks for a journal
	if path := r.svcs.CfgSvc.GetAnalysesJournal(); path != "" {
		journal := lgr.Rotating(path, analysesLogMaxSizeMB)
		defer journal.Close()
		opts = append(opts, session.WithJournal(journal))
	}

	sess, err := session.New(r.svcs.CfgSvc, r.svcs.VisionSvc, opts...)
	if err != nil {
		return err
	}

	presenter, serve := r.present(sess)
	if err := sess.Observe(presenter); err != nil {
		return err
	}

	ctx := sess.Context(canxCtx)

	// Cancelled on return so a lingering analyzer never blocks on the error stream
	sessCtx, sessCancel := context.WithCancel(ctx)
	defer sessCancel()

	if err := sess.Start(sessCtx); err != nil {
		lgr.Logger.ErrorContext(ctx,
			"session rejected",
			slog.String("mode", r.name),
			slog.Any("error", err),
		)
		presenter.ShowError(-1, err)
		procError(r.svcs.DataSvc, err)
		return err
	}

	svcs := pipeline.ServicesFactory{
		CfgSvc:    r.svcs.CfgSvc,
		DataSvc:   r.svcs.DataSvc,
		Session:   sess,
		Presenter: presenter,
	}
	source := pipeline.SourceFromConfig(svcs)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	agentResult := make(chan error, 1)
	go func() {
		agentResult <- pipeline.Agent(runCtx, svcs, errorStream, statsStream, source, r.streamers)
	}()

	serveResult := make(chan error, 1)
	if serve != nil {
		go func() {
			serveResult <- serve(runCtx)
		}()
	}

	var runErr error
	agentDone := false
	serveDone := serve == nil

	// Wait for cancellation, agent or presenter exit, stats or errors
	for !agentDone && !(serve != nil && serveDone) {
		select {
		case <-canxCtx.Done():
			lgr.Logger.InfoContext(ctx,
				"mode context cancelled",
				slog.String("mode", r.name),
			)
			goto resume

		case err := <-agentResult:
			agentDone = true
			runErr = err

		case err := <-serveResult:
			serveDone = true
			if err != nil {
				runErr = err
			}

		case s := <-statsStream:
			procStats(r.svcs.DataSvc, s)

		case e := <-errorStream:
			procError(r.svcs.DataSvc, e)
		}
	}

	// Wait for the agent, the presenter and the session to wind down, but no
	// longer than the max shutdown time. They may still report as they exit.
resume:
	runCancel()

	lgr.Logger.InfoContext(ctx,
		"mode is waiting for all go routines to exit",
		slog.String("mode", r.name),
	)

	closed := make(chan struct{})
	go func() {
		sess.Close()
		close(closed)
	}()
	sessionDone := false

	period := time.Duration(r.svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second
	timer := time.NewTimer(period)
	defer timer.Stop()

	for !agentDone || !serveDone || !sessionDone {
		select {
		case <-timer.C:
			lgr.Logger.InfoContext(ctx,
				"mode shutdown waiting period expired. Exiting now",
				slog.String("mode", r.name),
				slog.Duration("period", period),
			)
			return runErr

		case err := <-agentResult:
			agentDone = true
			if runErr == nil {
				runErr = err
			}

		case err := <-serveResult:
			serveDone = true
			if err != nil {
				lgr.Logger.WarnContext(ctx,
					"presenter exited",
					slog.String("mode", r.name),
					slog.Any("error", err),
				)
			}

		case <-closed:
			sessionDone = true
			procStats(r.svcs.DataSvc, sess.Stats())

		case s := <-statsStream:
			procStats(r.svcs.DataSvc, s)

		case e := <-errorStream:
			procError(r.svcs.DataSvc, e)
		}
	}

	lgr.Logger.InfoContext(ctx,
		"session ended",
		slog.String("mode", r.name),
		slog.String("session", sess.ID),
		slog.Int("results", sess.Log().Len()),
	)

	return runErr
}
