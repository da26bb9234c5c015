package video

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"gocv.io/x/gocv"
)

type gocvService struct {
}

// NewGocv opens streams through OpenCV's VideoCapture, which accepts files
// as well as http(s) and rtsp locations.
func NewGocv() IService {
	return &gocvService{}
}

func (svc *gocvService) Open(ctx context.Context, url string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("error opening video stream: %v", err)}
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, &model.DecodeError{Reason: "error opening video stream"}
	}

	lgr.Logger.Debug("video stream opened",
		slog.String("url", url),
		slog.Float64("fps", capture.Get(gocv.VideoCaptureFPS)),
		slog.Float64("frames", capture.Get(gocv.VideoCaptureFrameCount)),
	)

	return &gocvStream{
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

type gocvStream struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

func (s *gocvStream) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

func (s *gocvStream) Next() bool {
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return false
	}
	return true
}

func (s *gocvStream) Frame() ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.PNGFileExt, s.frame, []int{gocv.IMWritePngCompression, 0})
	if err != nil {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("error encoding frame: %v", err)}
	}
	defer buf.Close()

	// The buffer is backed by native memory
	return bytes.Clone(buf.GetBytes()), nil
}

// Err is always nil: VideoCapture does not tell a read failure apart from
// the end of the stream.
func (s *gocvStream) Err() error {
	return nil
}

func (s *gocvStream) Close() error {
	// Crucial to close the mat to avoid memory leaks
	if err := s.frame.Close(); err != nil {
		return err
	}
	return s.capture.Close()
}
