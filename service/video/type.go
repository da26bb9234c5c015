package video

import "context"

// Stream is an opened, decodable video. Next decodes the following frame and
// reports false at the end of the stream. Frame encodes the current frame as
// a lossless PNG.
type Stream interface {
	FPS() float64
	Next() bool
	Frame() ([]byte, error)
	Err() error
	Close() error
}

type IService interface {
	Open(ctx context.Context, url string) (Stream, error)
}
