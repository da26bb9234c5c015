package model

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	// DataURIPrefix marks an inline base64 image instead of an HTTP location
	DataURIPrefix = "data:image"

	ErrorCodeKey   = "error_code"
	ErrorReasonKey = "error_reason"
	ScoreKey       = "score"
	URLKey         = "url"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Processor, e.Message)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// ImageEntry is one unit of batch work. Values are kept as raw JSON so that
// caller supplied fields pass through untouched.
type ImageEntry map[string]json.RawMessage

// NewImageEntry builds the {"url": ...} entry used by the urls shorthand and
// the single image routes.
func NewImageEntry(url string) ImageEntry {
	raw, _ := json.Marshal(url)
	return ImageEntry{URLKey: raw}
}

// URL returns the entry's url field. It fails when the field is missing or
// is not a JSON string.
func (e ImageEntry) URL() (string, error) {
	raw, ok := e[URLKey]
	if !ok {
		return "", &DecodeError{Reason: "entry has no url field"}
	}

	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", &DecodeError{Reason: fmt.Sprintf("url must be a string, got %s", strings.TrimSpace(string(raw)))}
	}

	return url, nil
}

// IsDataURI reports whether the url carries inline image data.
func IsDataURI(url string) bool {
	return strings.HasPrefix(url, DataURIPrefix)
}

// Result is a ClassificationResult: either {score} or {error_code, error_reason},
// overlaid with the originating entry's fields.
type Result map[string]any

// NewScoreResult returns the success shape.
func NewScoreResult(score float64) Result {
	return Result{ScoreKey: score}
}

// Merge overlays every entry key onto the result. Entry values win on
// collision, so a caller supplied "score" shadows the computed one.
func (r Result) Merge(entry ImageEntry) Result {
	for k, v := range entry {
		r[k] = v
	}
	return r
}

// Score returns the computed score when the result holds one.
func (r Result) Score() (float64, bool) {
	s, ok := r[ScoreKey].(float64)
	return s, ok
}

// ErrorCode returns the error code when the result holds one.
func (r Result) ErrorCode() (int, bool) {
	c, ok := r[ErrorCodeKey].(int)
	return c, ok
}

// VideoResult is the outcome of an early-exit video scan.
type VideoResult struct {
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Flagged bool    `json:"flagged"`
}

// FrameSample is one sampled video frame, PNG encoded.
type FrameSample struct {
	Index    int
	Interval int
	Data     []byte
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

const (
	ClassifyTypeImage = "image"
	ClassifyTypeVideo = "video"
)
