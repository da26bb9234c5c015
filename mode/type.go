package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/pipeline"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
)

// Processor runs one mode of the binary until it finishes or the context is
// cancelled. args are the command line arguments after the mode name.
type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	alerter pipeline.Alerter,
	args []string) error

func procError(e interface{}) {
	if err, ok := e.(model.CustomError); ok {
		lgr.Logger.Error(
			"background error",
			slog.String("processor", err.Processor),
			slog.String("message", err.Message),
			slog.Any("error", err.Inner),
		)
		return
	}

	lgr.Logger.Error(
		"unknown error type",
		slog.Any("error", e),
	)
}
