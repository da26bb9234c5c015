package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/nsfw-go/api"
	"github.com/khaledhikmat/nsfw-go/pipeline"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
)

// Server runs the HTTP classification service until cancelled.
func Server(canxCtx context.Context, svcs pipeline.ServicesFactory, alerter pipeline.Alerter, _ []string) error {
	// Create an error stream. It is never closed because background
	// components may still report while shutting down.
	errorStream := make(chan interface{}, 10)

	alertStream := alerter(canxCtx, svcs, errorStream)

	server := api.NewServer(svcs, alertStream)
	serverResult := make(chan error, 1)

	go func() {
		lgr.Logger.Info("classification server listening",
			slog.String("port", svcs.CfgSvc.GetServerPort()),
		)
		serverResult <- server.Start()
	}()

	// Wait for cancellation, server exit or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"classification server context cancelled",
			)
			goto resume

		case err := <-serverResult:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil

		case e := <-errorStream:
			procError(e)
		}
	}

resume:
	period := time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second
	lgr.Logger.Info(
		"classification server is draining in-flight requests",
		slog.Duration("period", period),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), period)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Logger.Error("server shutdown", slog.Any("error", err))
		return err
	}

	return nil
}
