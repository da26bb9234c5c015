package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/natefinch/lumberjack"
)

// SimpleAlerter appends every alert to the detections log and posts it to
// the webhook service. The returned stream is never closed: producers send
// without blocking and the alerter simply stops reading on cancellation.
func SimpleAlerter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}) chan AlertData {
	in := make(chan AlertData, 100)
	detections := openDetections(svcs)

	go func() {
		defer func() {
			if detections != nil {
				_ = detections.Close()
			}
		}()

		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"alerter context cancelled",
				)
				return

			case alert := <-in:
				deliverAlert(canx, svcs, detections, errorStream, alert)
			}
		}
	}()

	return in
}

// DeliverAlerts records the given alerts synchronously. One-shot callers use
// it so that nothing is lost when the process exits right after.
func DeliverAlerts(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, alerts ...AlertData) {
	if len(alerts) == 0 {
		return
	}

	detections := openDetections(svcs)
	for _, alert := range alerts {
		deliverAlert(canx, svcs, detections, errorStream, alert)
	}

	if detections != nil {
		_ = detections.Close()
	}
}

func openDetections(svcs ServicesFactory) io.WriteCloser {
	file := svcs.CfgSvc.GetDetectionsLogFile()
	if file == "" {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	}
}

func deliverAlert(canx context.Context, svcs ServicesFactory, detections io.Writer, errorStream chan interface{}, alert AlertData) {
	payload := map[string]interface{}{
		"scanId":    alert.ScanID,
		"kind":      alert.Kind,
		"url":       alert.URL,
		"score":     alert.Score,
		"frame":     alert.Frame,
		"timestamp": alert.Timestamp.Format(time.RFC3339),
	}

	lgr.Logger.Info(
		"alert detected",
		slog.String("kind", alert.Kind),
		slog.String("url", alert.URL),
		slog.Float64("score", alert.Score),
	)

	if detections != nil {
		line, err := EncodeJSON(payload)
		if err == nil {
			_, err = detections.Write(append(line, '\n'))
		}
		if err != nil {
			reportError(errorStream, model.GenError("alerter", err, payload, "error writing detection"))
		}
	}

	if err := svcs.WebhookSvc.Post(canx, payload); err != nil {
		reportError(errorStream, model.GenError("alerter", err, payload, "error posting alert webhook"))
	}
}

func reportError(errorStream chan interface{}, err model.CustomError) {
	lgr.Logger.Error(
		"alerter error",
		slog.String("message", err.Message),
		slog.Any("error", err.Inner),
	)

	if errorStream == nil {
		return
	}

	select {
	case errorStream <- err:
	default:
	}
}
