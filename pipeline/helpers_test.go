package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/khaledhikmat/nsfw-go/service/fetcher"
	"github.com/khaledhikmat/nsfw-go/service/inference"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
	"github.com/khaledhikmat/nsfw-go/service/video"
	"github.com/khaledhikmat/nsfw-go/service/webhook"
	"github.com/stretchr/testify/require"
)

type testCfg struct {
	config.IService
	detections string
}

func (c testCfg) GetFetchMaxRetries() uint64 { return 0 }

func (c testCfg) GetDetectionsLogFile() string { return c.detections }

func newTestServices(classifier inference.IService, videoSvc video.IService) ServicesFactory {
	cfg := testCfg{IService: config.NewHardCoded()}
	return ServicesFactory{
		CfgSvc:       cfg,
		InferenceSvc: classifier,
		FetcherSvc:   fetcher.NewHTTP(cfg),
		VideoSvc:     videoSvc,
		WebhookSvc:   webhook.NewFake(),
		Metrics:      metrics.New(),
	}
}

// newImageServer serves "/ok/*" with the path as body and 404 elsewhere.
func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/gone.jpg"
	srv.Close()
	return url
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func checkerboard(alpha uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 90, A: alpha}
			if (x+y)%2 == 0 {
				c = color.NRGBA{R: 10, G: 240, B: 60, A: alpha}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
