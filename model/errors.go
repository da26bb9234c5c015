package model

import (
	"errors"
	"net/http"
)

// InvalidRequestError is a malformed top-level request body. It is surfaced
// to the caller as a plain text message, never as JSON.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// FetchError is a remote HTTP error or a connection level failure.
type FetchError struct {
	Code   int
	Reason string
}

func (e *FetchError) Error() string {
	return e.Reason
}

// DecodeError covers malformed base64, corrupt images and undecodable video.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return e.Reason
}

// ClassificationError is a scoring failure reported by the classifier.
type ClassificationError struct {
	Reason string
}

func (e *ClassificationError) Error() string {
	return e.Reason
}

// ResultFromError maps any failure to the {error_code, error_reason} shape.
// Fetch errors keep their status; everything else is a 500.
func ResultFromError(err error) Result {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return Result{
			ErrorCodeKey:   fetchErr.Code,
			ErrorReasonKey: fetchErr.Reason,
		}
	}

	return Result{
		ErrorCodeKey:   http.StatusInternalServerError,
		ErrorReasonKey: err.Error(),
	}
}
