package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/data"
	"github.com/khaledhikmat/vision-go/session"
	"gocv.io/x/gocv"
)

const (
	// How long a finishing goroutine waits for its stats to be picked up
	statsSendTimeout = 2 * time.Second
)

type FrameData struct {
	Mat       gocv.Mat
	Index     int
	Timestamp time.Time
}

// Presenter renders the live preview and the analysis outcomes.
type Presenter interface {
	session.Observer
	ShowFrame(jpeg []byte)
}

type ServicesFactory struct {
	CfgSvc    config.IService
	DataSvc   data.IService
	Session   *session.Session
	Presenter Presenter
}

// Sink is a streamer input. The framer only clones and sends the frames the
// sink accepts, and never blocks on a full sink.
type Sink struct {
	Name    string
	In      chan FrameData
	Accepts func(index int) bool
}

// Signature of streamer function
type Streamer func(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) Sink

func sendStats(statsStream chan interface{}, stats interface{}) {
	if statsStream == nil {
		return
	}

	timer := time.NewTimer(statsSendTimeout)
	defer timer.Stop()

	select {
	case statsStream <- stats:
	case <-timer.C:
	}
}

func sendError(canx context.Context, errorStream chan interface{}, err model.CustomError) {
	if errorStream == nil {
		return
	}

	timer := time.NewTimer(statsSendTimeout)
	defer timer.Stop()

	select {
	case errorStream <- err:
	case <-canx.Done():
	case <-timer.C:
	}
}
