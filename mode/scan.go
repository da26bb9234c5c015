package mode

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/pipeline"
	"golang.org/x/xerrors"
)

// Scan classifies one url given on the command line:
//
//	nsfw-go scan <url> [--video]
//
// The process exits as soon as the scan is done, so alerts are delivered
// inline instead of through the background alerter.
func Scan(canxCtx context.Context, svcs pipeline.ServicesFactory, _ pipeline.Alerter, args []string) error {
	return scan(canxCtx, svcs, args, os.Stdout)
}

func scan(canxCtx context.Context, svcs pipeline.ServicesFactory, args []string, out io.Writer) error {
	url, isVideo, err := parseScanArgs(args)
	if err != nil {
		return err
	}

	// A single scan raises at most one alert
	alertStream := make(chan pipeline.AlertData, 1)
	defer drainAlerts(canxCtx, svcs, alertStream)

	flagged := color.New(color.FgRed, color.Bold)
	clean := color.New(color.FgGreen)
	failed := color.New(color.FgYellow)

	if isVideo {
		result, err := pipeline.NewSampler(svcs, alertStream).Scan(canxCtx, url)
		if err != nil {
			failed.Fprintf(out, "ERROR   %s: %v\n", url, err)
			return xerrors.Errorf("video scan: %w", err)
		}

		if result.Flagged {
			flagged.Fprintf(out, "FLAGGED %s score=%.4f\n", url, result.Score)
		} else {
			clean.Fprintf(out, "CLEAN   %s\n", url)
		}
		return nil
	}

	result := pipeline.NewResolver(svcs, alertStream).Resolve(canxCtx, model.NewImageEntry(url))
	if code, ok := result.ErrorCode(); ok {
		failed.Fprintf(out, "ERROR   %s: %d %v\n", url, code, result[model.ErrorReasonKey])
		return xerrors.Errorf("image scan: %d %v", code, result[model.ErrorReasonKey])
	}

	score, _ := result.Score()
	if score > pipeline.FlagThreshold {
		flagged.Fprintf(out, "FLAGGED %s score=%.4f\n", url, score)
	} else {
		clean.Fprintf(out, "CLEAN   %s score=%.4f\n", url, score)
	}
	return nil
}

func drainAlerts(canxCtx context.Context, svcs pipeline.ServicesFactory, alertStream chan pipeline.AlertData) {
	var alerts []pipeline.AlertData
	for len(alertStream) > 0 {
		alerts = append(alerts, <-alertStream)
	}
	pipeline.DeliverAlerts(canxCtx, svcs, nil, alerts...)
}

func parseScanArgs(args []string) (string, bool, error) {
	url := ""
	isVideo := false
	for _, a := range args {
		switch {
		case a == "--video":
			isVideo = true
		case url == "":
			url = a
		default:
			return "", false, fmt.Errorf("unexpected argument %q", a)
		}
	}

	if url == "" {
		return "", false, fmt.Errorf("usage: nsfw-go scan <url> [--video]")
	}
	return url, isVideo, nil
}
