package inference

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"gocv.io/x/gocv"
	"golang.org/x/xerrors"
)

// caffeService runs the open_nsfw ResNet through the OpenCV DNN module.
// The net is loaded once and shared by every request.
type caffeService struct {
	// WARNING: gocv.Net is not thread-safe!!!
	mu     sync.Mutex
	net    gocv.Net
	params config.ModelParameters
}

func NewCaffe(cfgSvc config.IService) (IService, error) {
	params := cfgSvc.GetModelParameters()

	for _, path := range []string{params.PrototxtPath, params.WeightsPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, xerrors.Errorf("open_nsfw model artifact %s: %w", path, err)
		}
	}

	net := gocv.ReadNetFromCaffe(params.PrototxtPath, params.WeightsPath)
	if net.Empty() {
		return nil, xerrors.Errorf("error reading caffe model %s", params.WeightsPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting target: %w", err)
	}

	lgr.Logger.Info("caffe classifier loaded",
		slog.String("weights", params.WeightsPath),
		slog.String("openCV", gocv.Version()),
	)

	return &caffeService{
		net:    net,
		params: params,
	}, nil
}

func (svc *caffeService) Score(ctx context.Context, data []byte) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &model.ClassificationError{Reason: err.Error()}
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return 0, &model.ClassificationError{Reason: fmt.Sprintf("cannot decode image: %v", err)}
	}
	defer img.Close()

	if img.Empty() {
		return 0, &model.ClassificationError{Reason: "cannot identify image file"}
	}

	blob := svc.preprocess(img)
	defer blob.Close()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.net.SetInput(blob, svc.params.InputLayer)
	prob := svc.net.Forward(svc.params.OutputLayer)
	defer prob.Close()

	if prob.Empty() || prob.Total() < 2 {
		return 0, &model.ClassificationError{Reason: fmt.Sprintf("unexpected %s output of size %d", svc.params.OutputLayer, prob.Total())}
	}

	// Index 1 is the unsafe class
	return float64(prob.GetFloatAt(0, 1)), nil
}

// preprocess resizes to ResizeTo, takes the centre CropTo square and builds a
// BGR blob with the per-channel training mean subtracted.
func (svc *caffeService) preprocess(img gocv.Mat) gocv.Mat {
	p := svc.params

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(p.ResizeTo, p.ResizeTo), 0, 0, gocv.InterpolationLinear)

	off := (p.ResizeTo - p.CropTo) / 2
	crop := resized.Region(image.Rect(off, off, off+p.CropTo, off+p.CropTo))
	defer crop.Close()

	return gocv.BlobFromImage(crop, 1.0, image.Pt(p.CropTo, p.CropTo),
		gocv.NewScalar(p.Mean[0], p.Mean[1], p.Mean[2], 0), false, false)
}

func (svc *caffeService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.net.Close()
}
