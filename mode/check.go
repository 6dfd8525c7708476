package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vision-go/service/lgr"
	"github.com/khaledhikmat/vision-go/session"
)

// Check validates the configured credential against the vision endpoint and
// exits. No frame is captured.
func Check(canxCtx context.Context, svcs Services) error {
	sess, err := session.New(svcs.CfgSvc, svcs.VisionSvc)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := sess.Context(canxCtx)
	err = sess.Start(ctx)
	if err != nil {
		lgr.Logger.ErrorContext(ctx,
			"vision credential rejected",
			slog.String("endpoint", svcs.CfgSvc.GetVisionEndpoint()),
			slog.Any("error", err),
		)
		procError(svcs.DataSvc, err)
		return err
	}

	lgr.Logger.InfoContext(ctx,
		"vision credential accepted",
		slog.String("endpoint", svcs.CfgSvc.GetVisionEndpoint()),
		slog.String("model", svcs.CfgSvc.GetVisionModel()),
	)
	return nil
}
