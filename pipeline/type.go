package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/khaledhikmat/nsfw-go/service/fetcher"
	"github.com/khaledhikmat/nsfw-go/service/inference"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
	"github.com/khaledhikmat/nsfw-go/service/video"
	"github.com/khaledhikmat/nsfw-go/service/webhook"
)

// FlagThreshold is the score above which content is flagged.
const FlagThreshold = 0.4

// ServicesFactory carries the long-lived services shared by every request.
type ServicesFactory struct {
	CfgSvc       config.IService
	InferenceSvc inference.IService
	FetcherSvc   fetcher.IService
	VideoSvc     video.IService
	WebhookSvc   webhook.IService
	Metrics      *metrics.Metrics
}

type AlertData struct {
	ScanID    string
	Kind      string
	URL       string
	Score     float64
	Frame     int
	Timestamp time.Time
}

// Signature of alerter function
type Alerter func(canx context.Context, svcs ServicesFactory, errorStream chan interface{}) chan AlertData

// sendAlert never blocks the request path. Alerts are dropped when the
// alerter falls behind.
func sendAlert(alertStream chan AlertData, m *metrics.Metrics, alert AlertData) {
	if alertStream == nil {
		return
	}

	select {
	case alertStream <- alert:
	default:
		m.AlertsDropped.Inc()
	}
}

// displayURL keeps inline payloads out of logs and alerts.
func displayURL(url string) string {
	const maxLen = 64
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen] + "..."
}
