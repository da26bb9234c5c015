package inference

import "context"

// IService scores raw image bytes. The score is the probability in [0,1]
// that the image is unsafe, deterministic for identical bytes.
// Failures are reported as *model.ClassificationError.
type IService interface {
	Score(ctx context.Context, image []byte) (float64, error)
	Close() error
}
