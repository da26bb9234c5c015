package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/sethvargo/go-retry"
)

type httpService struct {
	client     *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries uint64
	cfgSvc     config.IService
}

func NewHTTP(cfgSvc config.IService) IService {
	return &httpService{
		client: &http.Client{
			Timeout: cfgSvc.GetFetchTimeout(),
		},
		userAgent:  cfgSvc.GetUserAgent(),
		maxBytes:   cfgSvc.GetFetchMaxBytes(),
		maxRetries: cfgSvc.GetFetchMaxRetries(),
		cfgSvc:     cfgSvc,
	}
}

func (svc *httpService) Fetch(ctx context.Context, target string) ([]byte, error) {
	var body []byte

	// Only connection level failures are retried. An HTTP status is an answer.
	base := svc.cfgSvc.GetFetchRetryBackoff()
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.WithMaxRetries(svc.maxRetries, retry.NewFibonacci(base))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		data, err := svc.get(ctx, target)
		if err == nil {
			body = data
			return nil
		}

		var urlErr *url.Error
		if errors.As(err, &urlErr) && ctx.Err() == nil {
			lgr.Logger.Debug("fetch failed, retrying",
				slog.String("url", target),
				slog.Any("error", err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, toFetchError(err)
	}

	return body, nil
}

func (svc *httpService) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, toFetchError(err)
	}
	req.Header.Set("User-Agent", svc.userAgent)

	resp, err := svc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.FetchError{Code: resp.StatusCode, Reason: statusReason(resp)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, svc.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > svc.maxBytes {
		return nil, &model.FetchError{
			Code:   http.StatusRequestEntityTooLarge,
			Reason: fmt.Sprintf("response body exceeds %d bytes", svc.maxBytes),
		}
	}

	return data, nil
}

// statusReason returns the reason phrase of the status line, e.g. "Not Found".
func statusReason(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

func toFetchError(err error) error {
	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &model.FetchError{Code: http.StatusInternalServerError, Reason: urlErr.Err.Error()}
	}

	return &model.FetchError{Code: http.StatusInternalServerError, Reason: err.Error()}
}
