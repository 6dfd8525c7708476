package mode

import (
	"context"

	"github.com/fatih/color"

	"github.com/khaledhikmat/vision-go/console"
	"github.com/khaledhikmat/vision-go/pipeline"
	"github.com/khaledhikmat/vision-go/session"
)

// Console prints descriptions to the terminal. There is no preview, so only
// the analyzer streamer runs.
func Console(canxCtx context.Context, svcs Services) error {
	return sessionRun{
		name: "console",
		svcs: svcs,
		streamers: []pipeline.Streamer{
			pipeline.Analyzer,
		},
		present: func(_ *session.Session) (pipeline.Presenter, func(context.Context) error) {
			return console.NewPresenter(color.Output), nil
		},
	}.run(canxCtx)
}
