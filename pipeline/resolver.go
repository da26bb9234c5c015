package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// Resolver turns one entry into a classification result. It never fails:
// every error is folded into the result as {error_code, error_reason}.
type Resolver struct {
	svcs        ServicesFactory
	alertStream chan AlertData
}

func NewResolver(svcs ServicesFactory, alertStream chan AlertData) *Resolver {
	return &Resolver{
		svcs:        svcs,
		alertStream: alertStream,
	}
}

// Resolve classifies the entry and overlays the entry's own keys on the
// result. Entry keys win on collision.
func (r *Resolver) Resolve(ctx context.Context, entry model.ImageEntry) model.Result {
	return r.classify(ctx, entry).Merge(entry)
}

func (r *Resolver) classify(ctx context.Context, entry model.ImageEntry) model.Result {
	url, err := entry.URL()
	if err != nil {
		return r.failed(url, err)
	}

	var data []byte
	if model.IsDataURI(url) {
		data, err = DecodeDataURI(url)
	} else {
		data, err = r.svcs.FetcherSvc.Fetch(ctx, url)
	}
	if err != nil {
		return r.failed(url, err)
	}

	score, err := r.svcs.InferenceSvc.Score(ctx, data)
	if err != nil {
		return r.failed(url, err)
	}

	if score > FlagThreshold {
		r.svcs.Metrics.IncClassification(metrics.KindImage, metrics.OutcomeFlagged)
		sendAlert(r.alertStream, r.svcs.Metrics, AlertData{
			Kind:      metrics.KindImage,
			URL:       displayURL(url),
			Score:     score,
			Timestamp: time.Now(),
		})
	} else {
		r.svcs.Metrics.IncClassification(metrics.KindImage, metrics.OutcomeSuccess)
	}

	return model.NewScoreResult(score)
}

func (r *Resolver) failed(url string, err error) model.Result {
	result := model.ResultFromError(err)
	code, _ := result.ErrorCode()

	r.svcs.Metrics.IncClassification(metrics.KindImage, metrics.OutcomeError)
	r.svcs.Metrics.IncError(metrics.KindImage, strconv.Itoa(code))
	lgr.Logger.Debug("image classification failed",
		slog.String("url", displayURL(url)),
		slog.Int("code", code),
		slog.Any("error", err),
	)

	return result
}

// DecodeDataURI decodes the base64 payload after the first comma and
// re-encodes the image as an opaque RGB PNG, so the classifier always sees
// the same format for the same pixels.
func DecodeDataURI(url string) ([]byte, error) {
	_, payload, found := strings.Cut(url, ",")
	if !found {
		return nil, &model.DecodeError{Reason: "data uri has no payload"}
	}

	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, &model.DecodeError{Reason: fmt.Sprintf("invalid base64 payload: %v", err)}
		}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("cannot identify image file: %v", err)}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, toRGB(img)); err != nil {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("cannot encode png: %v", err)}
	}

	return buf.Bytes(), nil
}

// toRGB drops the alpha channel without compositing, keeping the colour
// values as they are.
func toRGB(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}

	return dst
}
