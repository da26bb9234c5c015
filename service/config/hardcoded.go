package config

import (
	"time"
)

// DefaultUserAgent is a desktop browser agent. Some storage providers reject
// empty or library agents on public bucket access.
const DefaultUserAgent = "Mozilla/5.0 (Windows; U; Windows NT 5.1; de; rv:1.9.1.5) Gecko/20091102 Firefox/3.5.5"

var defaultModelParameters = ModelParameters{
	PrototxtPath: "/opt/open_nsfw/nsfw_model/deploy.prototxt",
	WeightsPath:  "/opt/open_nsfw/nsfw_model/resnet_50_1by2_nsfw.caffemodel",
	ResizeTo:     256,
	CropTo:       224,
	Mean:         [3]float64{104, 117, 123},
	InputLayer:   "data",
	OutputLayer:  "prob",
}

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetServerPort() string {
	return "8080"
}

func (svc *hardcodedService) GetServerWriteTimeout() time.Duration {
	// Batch responses stream for as long as the batch takes
	return 10 * time.Minute
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetLogLevel() string {
	return "info"
}

func (svc *hardcodedService) GetLogFile() string {
	return ""
}

func (svc *hardcodedService) GetDetectionsLogFile() string {
	return "detections.log"
}

func (svc *hardcodedService) GetUserAgent() string {
	return DefaultUserAgent
}

func (svc *hardcodedService) GetFetchTimeout() time.Duration {
	return 30 * time.Second
}

func (svc *hardcodedService) GetFetchMaxRetries() uint64 {
	return 2
}

func (svc *hardcodedService) GetFetchRetryBackoff() time.Duration {
	return 250 * time.Millisecond
}

func (svc *hardcodedService) GetFetchMaxBytes() int64 {
	return 32 << 20
}

func (svc *hardcodedService) GetInferenceType() string {
	return InferenceCaffe
}

func (svc *hardcodedService) GetModelParameters() ModelParameters {
	return defaultModelParameters
}

func (svc *hardcodedService) GetRedisAddr() string {
	// Empty disables the score cache
	return ""
}

func (svc *hardcodedService) GetRedisPassword() string {
	return ""
}

func (svc *hardcodedService) GetRedisDB() int {
	return 0
}

func (svc *hardcodedService) GetCacheTTL() time.Duration {
	return 24 * time.Hour
}

func (svc *hardcodedService) GetWebhookURL() string {
	return ""
}
