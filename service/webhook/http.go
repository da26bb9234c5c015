package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/sethvargo/go-retry"
	"golang.org/x/xerrors"
)

type httpService struct {
	url    string
	client *http.Client
}

// NewHTTP posts JSON payloads to the configured webhook url. When no url is
// configured it returns a discarding service so callers never need a nil check.
func NewHTTP(cfgSvc config.IService) IService {
	if cfgSvc.GetWebhookURL() == "" {
		return NewNoop()
	}

	return &httpService{
		url: cfgSvc.GetWebhookURL(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (svc *httpService) Post(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return xerrors.Errorf("webhook payload: %w", err)
	}

	b := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := svc.client.Do(req)
		if err != nil {
			return retry.RetryableError(xerrors.Errorf("webhook post: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(xerrors.Errorf("webhook post: %s", resp.Status))
		case resp.StatusCode >= 300:
			return xerrors.Errorf("webhook post: %s", resp.Status)
		}
		return nil
	})
}
