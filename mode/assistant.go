package mode

import (
	"context"

	"github.com/khaledhikmat/vision-go/pipeline"
	"github.com/khaledhikmat/vision-go/session"
	"github.com/khaledhikmat/vision-go/web"
)

// Assistant serves the browser dashboard: live preview next to the growing
// list of frame descriptions.
func Assistant(canxCtx context.Context, svcs Services) error {
	return sessionRun{
		name: "assistant",
		svcs: svcs,
		streamers: []pipeline.Streamer{
			pipeline.Previewer,
			pipeline.Analyzer,
		},
		present: func(sess *session.Session) (pipeline.Presenter, func(context.Context) error) {
			server := web.NewServer(svcs.CfgSvc.GetWebPort(), sess)
			return server, server.Start
		},
	}.run(canxCtx)
}
