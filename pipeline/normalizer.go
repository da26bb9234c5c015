package pipeline

import (
	"encoding/json"

	"github.com/khaledhikmat/nsfw-go/model"
)

const (
	UsageMessage       = `Accepted formats are {"urls": ["url1", "url2"]} or {"images": [{"url":"url1"}, {"url":"url2"}]}`
	MissingURLMessage  = "Missing  url parameter"
	InvalidTypeMessage = "Invalid type parameter"
)

type batchRequest struct {
	URLs   json.RawMessage `json:"urls"`
	Images json.RawMessage `json:"images"`
}

// NormalizeBatch turns a batch body into ordered entries. "urls" is checked
// before "images"; when both are absent the usage message is returned.
func NormalizeBatch(body []byte) ([]model.ImageEntry, error) {
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &model.InvalidRequestError{Message: UsageMessage}
	}

	switch {
	case present(req.URLs):
		var urls []string
		if err := json.Unmarshal(req.URLs, &urls); err != nil {
			return nil, &model.InvalidRequestError{Message: UsageMessage}
		}

		entries := make([]model.ImageEntry, 0, len(urls))
		for _, u := range urls {
			entries = append(entries, model.NewImageEntry(u))
		}
		return entries, nil

	case present(req.Images):
		var entries []model.ImageEntry
		if err := json.Unmarshal(req.Images, &entries); err != nil {
			return nil, &model.InvalidRequestError{Message: UsageMessage}
		}
		if entries == nil {
			entries = []model.ImageEntry{}
		}
		return entries, nil
	}

	return nil, &model.InvalidRequestError{Message: UsageMessage}
}

// NormalizeSingle builds the entry for GET /?url=.
func NormalizeSingle(url string, ok bool) (model.ImageEntry, error) {
	if !ok {
		return nil, &model.InvalidRequestError{Message: MissingURLMessage}
	}
	return model.NewImageEntry(url), nil
}

// NormalizeClassify validates the body of POST /classify.
func NormalizeClassify(body []byte) (model.ClassifyRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return model.ClassifyRequest{}, &model.InvalidRequestError{Message: MissingURLMessage}
	}

	if !present(fields["url"]) || !present(fields["type"]) {
		return model.ClassifyRequest{}, &model.InvalidRequestError{Message: MissingURLMessage}
	}

	var req model.ClassifyRequest
	if err := json.Unmarshal(fields["url"], &req.URL); err != nil {
		return model.ClassifyRequest{}, &model.InvalidRequestError{Message: MissingURLMessage}
	}

	if err := json.Unmarshal(fields["type"], &req.Type); err != nil {
		return model.ClassifyRequest{}, &model.InvalidRequestError{Message: InvalidTypeMessage}
	}
	if req.Type != model.ClassifyTypeImage && req.Type != model.ClassifyTypeVideo {
		return model.ClassifyRequest{}, &model.InvalidRequestError{Message: InvalidTypeMessage}
	}

	return req, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
