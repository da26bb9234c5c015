package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBatchURLs(t *testing.T) {
	entries, err := NormalizeBatch([]byte(`{"urls": ["http://a/1.jpg", "http://a/2.jpg"]}`))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first, err := entries[0].URL()
	require.NoError(t, err)
	second, err := entries[1].URL()
	require.NoError(t, err)
	assert.Equal(t, "http://a/1.jpg", first)
	assert.Equal(t, "http://a/2.jpg", second)
}

func TestNormalizeBatchImagesKeepExtraFields(t *testing.T) {
	entries, err := NormalizeBatch([]byte(`{"images": [{"url": "http://a/1.jpg", "id": 7}, {"url": "http://a/2.jpg"}]}`))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, json.RawMessage(`7`), entries[0]["id"])
	_, ok := entries[1]["id"]
	assert.False(t, ok)
}

func TestNormalizeBatchURLsWinOverImages(t *testing.T) {
	entries, err := NormalizeBatch([]byte(`{"images": [{"url": "http://a/img.jpg"}], "urls": ["http://a/url.jpg"]}`))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	url, err := entries[0].URL()
	require.NoError(t, err)
	assert.Equal(t, "http://a/url.jpg", url)
}

func TestNormalizeBatchEmptyLists(t *testing.T) {
	for _, body := range []string{`{"urls": []}`, `{"images": []}`} {
		entries, err := NormalizeBatch([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, entries, body)
	}
}

func TestNormalizeBatchInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no known key", `{"files": ["a"]}`},
		{"not json", `urls=a`},
		{"urls not strings", `{"urls": [1, 2]}`},
		{"images not objects", `{"images": ["a"]}`},
		{"null urls", `{"urls": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeBatch([]byte(tt.body))

			var invalid *model.InvalidRequestError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, UsageMessage, invalid.Message)
		})
	}
}

func TestNormalizeSingle(t *testing.T) {
	entry, err := NormalizeSingle("http://a/1.jpg", true)
	require.NoError(t, err)
	url, err := entry.URL()
	require.NoError(t, err)
	assert.Equal(t, "http://a/1.jpg", url)

	_, err = NormalizeSingle("", false)
	assert.EqualError(t, err, MissingURLMessage)
}

func TestNormalizeClassify(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    model.ClassifyRequest
		wantErr string
	}{
		{"image", `{"url": "http://a/1.jpg", "type": "image"}`, model.ClassifyRequest{URL: "http://a/1.jpg", Type: "image"}, ""},
		{"video", `{"url": "http://a/1.mp4", "type": "video"}`, model.ClassifyRequest{URL: "http://a/1.mp4", Type: "video"}, ""},
		{"unknown type", `{"url": "http://a/1.jpg", "type": "audio"}`, model.ClassifyRequest{}, InvalidTypeMessage},
		{"missing type", `{"url": "http://a/1.jpg"}`, model.ClassifyRequest{}, MissingURLMessage},
		{"missing url", `{"type": "image"}`, model.ClassifyRequest{}, MissingURLMessage},
		{"not json", `nope`, model.ClassifyRequest{}, MissingURLMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeClassify([]byte(tt.body))
			if tt.wantErr != "" {
				var invalid *model.InvalidRequestError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.wantErr, invalid.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
