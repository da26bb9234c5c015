package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFetchedImage(t *testing.T) {
	srv := newImageServer(t)
	classifier := inference.NewScripted(0.25)
	r := NewResolver(newTestServices(classifier, nil), nil)

	result := r.Resolve(context.Background(), model.NewImageEntry(srv.URL+"/ok/a.jpg"))

	score, ok := result.Score()
	require.True(t, ok)
	assert.Equal(t, 0.25, score)
	assert.Equal(t, json.RawMessage(`"`+srv.URL+`/ok/a.jpg"`), result[model.URLKey])
	assert.Equal(t, [][]byte{[]byte("/ok/a.jpg")}, classifier.Inputs())
}

func TestResolveRemoteNotFound(t *testing.T) {
	srv := newImageServer(t)
	classifier := inference.NewScripted()
	r := NewResolver(newTestServices(classifier, nil), nil)

	result := r.Resolve(context.Background(), model.NewImageEntry(srv.URL+"/missing.jpg"))

	assert.Equal(t, http.StatusNotFound, result[model.ErrorCodeKey])
	assert.Equal(t, "Not Found", result[model.ErrorReasonKey])
	assert.Zero(t, classifier.Calls())
}

func TestResolveUnreachableHost(t *testing.T) {
	r := NewResolver(newTestServices(inference.NewScripted(), nil), nil)

	result := r.Resolve(context.Background(), model.NewImageEntry(unreachableURL(t)))

	assert.Equal(t, http.StatusInternalServerError, result[model.ErrorCodeKey])
	assert.NotEmpty(t, result[model.ErrorReasonKey])
}

func TestResolveClassifierFailure(t *testing.T) {
	srv := newImageServer(t)
	classifier := inference.NewScripted().FailOn(0, &model.ClassificationError{Reason: "bad pixels"})
	r := NewResolver(newTestServices(classifier, nil), nil)

	result := r.Resolve(context.Background(), model.NewImageEntry(srv.URL+"/ok/a.jpg"))

	assert.Equal(t, http.StatusInternalServerError, result[model.ErrorCodeKey])
	assert.Equal(t, "bad pixels", result[model.ErrorReasonKey])
}

func TestResolveEntryKeysWin(t *testing.T) {
	srv := newImageServer(t)
	r := NewResolver(newTestServices(inference.NewScripted(0.9), nil), nil)

	entry := model.ImageEntry{
		model.URLKey:   json.RawMessage(`"` + srv.URL + `/ok/a.jpg"`),
		model.ScoreKey: json.RawMessage(`"client-value"`),
	}
	result := r.Resolve(context.Background(), entry)

	data, err := EncodeJSON(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "client-value", decoded["score"])
}

func TestResolveMissingURL(t *testing.T) {
	r := NewResolver(newTestServices(inference.NewScripted(), nil), nil)

	result := r.Resolve(context.Background(), model.ImageEntry{"id": json.RawMessage(`1`)})

	assert.Equal(t, http.StatusInternalServerError, result[model.ErrorCodeKey])
	assert.NotEmpty(t, result[model.ErrorReasonKey])
	assert.Equal(t, json.RawMessage(`1`), result["id"])
}

func TestResolveDataURIIsDeterministic(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, checkerboard(0xff)))
	classifier := inference.NewFake()
	r := NewResolver(newTestServices(classifier, nil), nil)

	first := r.Resolve(context.Background(), model.NewImageEntry(uri))
	second := r.Resolve(context.Background(), model.NewImageEntry(uri))

	firstScore, ok := first.Score()
	require.True(t, ok)
	secondScore, ok := second.Score()
	require.True(t, ok)
	assert.Equal(t, firstScore, secondScore)
}

func TestResolveFlaggedImageRaisesAlert(t *testing.T) {
	srv := newImageServer(t)
	alerts := make(chan AlertData, 1)
	r := NewResolver(newTestServices(inference.NewScripted(0.8), nil), alerts)

	r.Resolve(context.Background(), model.NewImageEntry(srv.URL+"/ok/a.jpg"))

	require.Len(t, alerts, 1)
	alert := <-alerts
	assert.Equal(t, 0.8, alert.Score)
	assert.Equal(t, "image", alert.Kind)
}

func TestDecodeDataURIPreservesPixels(t *testing.T) {
	src := checkerboard(0x80)
	payload := base64.StdEncoding.EncodeToString(pngBytes(t, src))

	data, err := DecodeDataURI("data:image/png;base64,\n" + payload[:10] + " " + payload[10:])
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())

	r, g, b, a := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(200*0x101), r)
	assert.Equal(t, uint32(30*0x101), g)
	assert.Equal(t, uint32(90*0x101), b)
}

func TestDecodeDataURIUnpadded(t *testing.T) {
	payload := base64.RawStdEncoding.EncodeToString(pngBytes(t, checkerboard(0xff)))

	_, err := DecodeDataURI("data:image/png;base64," + payload)
	assert.NoError(t, err)
}

func TestDecodeDataURIFailures(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"no comma", "data:image/png;base64"},
		{"bad base64", "data:image/png;base64,!!!!"},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.uri)

			var decodeErr *model.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}
