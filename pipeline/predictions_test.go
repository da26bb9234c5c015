package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictionsBody struct {
	Predictions []map[string]any `json:"predictions"`
}

func TestWritePredictionsEmpty(t *testing.T) {
	r := NewResolver(newTestServices(inference.NewScripted(), nil), nil)

	var buf bytes.Buffer
	err := WritePredictions(context.Background(), &buf, NewPredictions(r, nil))
	require.NoError(t, err)

	assert.Equal(t, `{"predictions": []}`, buf.String())
}

func TestWritePredictionsKeepsOrderAndIsolatesFailures(t *testing.T) {
	srv := newImageServer(t)
	classifier := inference.NewScripted(0.1, 0.2)
	r := NewResolver(newTestServices(classifier, nil), nil)

	urls := []string{
		srv.URL + "/ok/1.jpg",
		unreachableURL(t),
		srv.URL + "/missing.jpg",
		srv.URL + "/ok/2.jpg",
	}
	entries := make([]model.ImageEntry, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, model.NewImageEntry(u))
	}

	var buf bytes.Buffer
	require.NoError(t, WritePredictions(context.Background(), &buf, NewPredictions(r, entries)))

	var body predictionsBody
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body), buf.String())
	require.Len(t, body.Predictions, len(urls))

	for i, u := range urls {
		assert.Equal(t, u, body.Predictions[i]["url"])
	}
	assert.Equal(t, 0.1, body.Predictions[0]["score"])
	assert.Equal(t, float64(http.StatusInternalServerError), body.Predictions[1]["error_code"])
	assert.NotEmpty(t, body.Predictions[1]["error_reason"])
	assert.Equal(t, float64(http.StatusNotFound), body.Predictions[2]["error_code"])
	assert.Equal(t, 0.2, body.Predictions[3]["score"])
	assert.Equal(t, 2, classifier.Calls())
}

func TestWritePredictionsLayout(t *testing.T) {
	srv := newImageServer(t)
	r := NewResolver(newTestServices(inference.NewScripted(0.5, 0.5), nil), nil)
	entries := []model.ImageEntry{
		model.NewImageEntry(srv.URL + "/ok/1.jpg"),
		model.NewImageEntry(srv.URL + "/ok/2.jpg"),
	}

	var buf bytes.Buffer
	require.NoError(t, WritePredictions(context.Background(), &buf, NewPredictions(r, entries)))

	want := "{\"predictions\": [\n" +
		`{"score":0.5,"url":"` + srv.URL + `/ok/1.jpg"}` + ",\n" +
		`{"score":0.5,"url":"` + srv.URL + `/ok/2.jpg"}` + "\n]}"
	assert.Equal(t, want, buf.String())
}

// sliceIterator records how much was written when each result was pulled.
type sliceIterator struct {
	results []model.Result
	w       *httptest.ResponseRecorder
	seen    []int
}

func (it *sliceIterator) Next(_ context.Context) (model.Result, bool) {
	it.seen = append(it.seen, it.w.Body.Len())
	if len(it.results) == 0 {
		return nil, false
	}
	r := it.results[0]
	it.results = it.results[1:]
	return r, true
}

func TestWritePredictionsStreamsIncrementally(t *testing.T) {
	rec := httptest.NewRecorder()
	it := &sliceIterator{
		results: []model.Result{{"score": 0.1}, {"score": 0.2}, {"score": 0.3}},
		w:       rec,
	}

	require.NoError(t, WritePredictions(context.Background(), rec, it))

	require.Len(t, it.seen, 4)
	assert.Zero(t, it.seen[0])
	// the opening fragment is out before the second result is produced
	assert.Equal(t, len("{\"predictions\": [\n"), it.seen[1])
	// and the first element before the third
	assert.Greater(t, it.seen[2], it.seen[1])
	assert.True(t, rec.Flushed)
}

func TestPredictionsStopOnCancel(t *testing.T) {
	srv := newImageServer(t)
	classifier := inference.NewScripted(0.1, 0.1, 0.1)
	r := NewResolver(newTestServices(classifier, nil), nil)
	p := NewPredictions(r, []model.ImageEntry{
		model.NewImageEntry(srv.URL + "/ok/1.jpg"),
		model.NewImageEntry(srv.URL + "/ok/2.jpg"),
		model.NewImageEntry(srv.URL + "/ok/3.jpg"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, ok := p.Next(ctx)
	require.True(t, ok)

	cancel()
	_, ok = p.Next(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1, classifier.Calls())
}
