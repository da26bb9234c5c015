package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
)

// Sampler scans a video roughly one frame per second and stops at the first
// frame scoring above FlagThreshold. Open, decode and classifier failures
// are returned to the caller.
type Sampler struct {
	svcs        ServicesFactory
	alertStream chan AlertData
}

func NewSampler(svcs ServicesFactory, alertStream chan AlertData) *Sampler {
	return &Sampler{
		svcs:        svcs,
		alertStream: alertStream,
	}
}

// SampleInterval is floor(fps), at least 1. A non-positive or NaN rate means
// the stream cannot be sampled.
func SampleInterval(fps float64) (int, error) {
	// float64(math.MaxInt) rounds up to 2^63, which no int can hold
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 || fps >= float64(math.MaxInt) {
		return 0, &model.DecodeError{Reason: fmt.Sprintf("invalid frame rate %v", fps)}
	}

	interval := int(math.Floor(fps))
	if interval < 1 {
		interval = 1
	}
	return interval, nil
}

func (s *Sampler) Scan(ctx context.Context, url string) (model.VideoResult, error) {
	result, err := s.scan(ctx, url)
	if err != nil {
		s.svcs.Metrics.IncClassification(metrics.KindVideo, metrics.OutcomeError)
		return model.VideoResult{}, err
	}

	if result.Flagged {
		s.svcs.Metrics.IncClassification(metrics.KindVideo, metrics.OutcomeFlagged)
	} else {
		s.svcs.Metrics.IncClassification(metrics.KindVideo, metrics.OutcomeSuccess)
	}
	return result, nil
}

func (s *Sampler) scan(ctx context.Context, url string) (model.VideoResult, error) {
	scanID := uuid.NewString()

	stream, err := s.svcs.VideoSvc.Open(ctx, url)
	if err != nil {
		return model.VideoResult{}, err
	}
	defer stream.Close()

	interval, err := SampleInterval(stream.FPS())
	if err != nil {
		return model.VideoResult{}, err
	}

	lgr.Logger.Debug("video scan started",
		slog.String("scanId", scanID),
		slog.String("url", displayURL(url)),
		slog.Float64("fps", stream.FPS()),
		slog.Int("interval", interval),
	)

	sampled := 0
	for count := 0; stream.Next(); count++ {
		if err := ctx.Err(); err != nil {
			return model.VideoResult{}, err
		}

		if count%interval != 0 {
			continue
		}

		data, err := stream.Frame()
		if err != nil {
			return model.VideoResult{}, err
		}

		sample := model.FrameSample{Index: count, Interval: interval, Data: data}
		score, err := s.svcs.InferenceSvc.Score(ctx, sample.Data)
		if err != nil {
			return model.VideoResult{}, err
		}
		sampled++
		s.svcs.Metrics.FramesSampled.Inc()

		if score > FlagThreshold {
			lgr.Logger.Info("video flagged",
				slog.String("scanId", scanID),
				slog.String("url", displayURL(url)),
				slog.Int("frame", sample.Index),
				slog.Float64("score", score),
			)
			sendAlert(s.alertStream, s.svcs.Metrics, AlertData{
				ScanID:    scanID,
				Kind:      metrics.KindVideo,
				URL:       displayURL(url),
				Score:     score,
				Frame:     sample.Index,
				Timestamp: time.Now(),
			})
			return model.VideoResult{URL: url, Score: score, Flagged: true}, nil
		}
	}

	if err := stream.Err(); err != nil {
		return model.VideoResult{}, &model.DecodeError{Reason: fmt.Sprintf("error decoding video: %v", err)}
	}

	lgr.Logger.Debug("video scan finished",
		slog.String("scanId", scanID),
		slog.Int("sampled", sampled),
	)

	return model.VideoResult{URL: url, Score: 0, Flagged: false}, nil
}
